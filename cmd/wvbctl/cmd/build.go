package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/webviewbundle/wvb/bundle"
	"github.com/webviewbundle/wvb/checksum"
)

var buildCmd = &cobra.Command{
	Use:   "build <src-dir> <out.wvb>",
	Short: "Build a .wvb bundle from a directory of static assets",
	Args:  cobra.ExactArgs(2),
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	srcDir, outPath := args[0], args[1]

	b := bundle.NewBuilder(checksum.DefaultSeed)

	count := 0
	err := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		entryPath := "/" + filepath.ToSlash(rel)
		b.AddEntry(entryPath, data, contentType, nil)
		count++

		logger.Debug("added entry", "path", entryPath, "bytes", len(data), "content_type", contentType)

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", srcDir, err)
	}

	built, err := b.Build()
	if err != nil {
		return fmt.Errorf("build bundle: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	n, err := bundle.Write(f, built, checksum.DefaultSeed)
	if err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	logger.Info("built bundle", "entries", count, "bytes", n, "output", outPath)

	return nil
}
