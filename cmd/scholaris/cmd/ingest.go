package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scholaris-ai/scholaris/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Ingest documents (files or directories) into the local index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ingestor := a.ingestor()
			out := cmd.OutOrStdout()

			var files, chunks, skipped int
			for _, root := range args {
				err := walkDocuments(root, func(path string) error {
					stats, err := ingestor.IngestFile(cmd.Context(), path)
					if err != nil {
						return fmt.Errorf("ingest %s: %w", path, err)
					}
					files++
					chunks += stats.Chunks
					if stats.Skipped {
						skipped++
						fmt.Fprintf(out, "unchanged %s\n", path)
					} else {
						fmt.Fprintf(out, "ingested  %s (%d chunks)\n", path, stats.Chunks)
					}
					return nil
				})
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "\n%d files, %d chunks, %d unchanged\n", files, chunks, skipped)

			if !watch {
				return nil
			}
			for _, root := range args {
				info, err := os.Stat(root)
				if err != nil || !info.IsDir() {
					continue
				}
				fmt.Fprintf(out, "watching %s (ctrl-c to stop)\n", root)
				watcher := ingest.NewWatcher(ingestor, root, nil)
				if err := watcher.Run(cmd.Context()); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-ingest changed files")
	return cmd
}

// walkDocuments calls fn for every supported document under root. A
// plain file is passed through regardless of extension.
func walkDocuments(root string, fn func(path string) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fn(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			return fn(path)
		}
		return nil
	})
}
