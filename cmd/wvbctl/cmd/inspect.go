package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/webviewbundle/wvb/bundle"
	"github.com/webviewbundle/wvb/checksum"
)

var inspectVerify bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <bundle.wvb>",
	Short: "Print a bundle's header and index without extracting it",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectVerify, "verify", true, "verify header and index checksums while reading")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	desc, err := bundle.ReadDescriptorAt(f, checksum.DefaultSeed, inspectVerify)
	if err != nil {
		return fmt.Errorf("read descriptor: %w", err)
	}

	fmt.Printf("version:     %d\n", desc.Header.Version)
	fmt.Printf("index size:  %d bytes\n", desc.Header.IndexSize)
	fmt.Printf("data offset: %d\n", desc.DataOffset())
	fmt.Printf("entries:     %d\n\n", desc.Index.Len())

	paths := desc.Index.Paths()
	sort.Strings(paths)

	for _, p := range paths {
		e, _ := desc.Index.Get(p)
		fmt.Printf("%-40s %10d bytes  %s\n", p, e.ContentLength, e.ContentType)
	}

	return nil
}
