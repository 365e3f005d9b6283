// Command wvbctl is a thin external consumer of the wvb library: build a
// .wvb file from a directory tree, inspect one's index, or serve one over
// plain HTTP. The core library stays transport- and CLI-agnostic; this
// binary is just one way to drive it.
package main

import (
	"fmt"
	"os"

	"github.com/webviewbundle/wvb/cmd/wvbctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
