package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scholaris-ai/scholaris/internal/store"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index statistics and active configuration",
		Args:  cobra.NoArgs,
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

			docs, err := a.meta.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			var chunks int
			for _, d := range docs {
				chunks += d.ChunkCount
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "data dir:        %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "documents:       %d\n", len(docs))
			fmt.Fprintf(out, "chunks:          %d\n", chunks)
			fmt.Fprintf(out, "indexed vectors: %d\n", a.index.Count())
			fmt.Fprintf(out, "embedding model: %s (%d dims)\n",
				a.embedder.ModelName(), a.embedder.Dimensions())
			fmt.Fprintf(out, "llm model:       %s @ %s\n", cfg.LLM.Model, cfg.LLM.Host)
			fmt.Fprintf(out, "reranker:        enabled=%t endpoint=%s\n",
				cfg.Reranker.Enabled, cfg.Reranker.Endpoint)
			fmt.Fprintf(out, "sources:         %v\n", cfg.Literature.Sources)
			fmt.Fprintf(out, "index file:      %s\n",
				filepath.Join(cfg.Paths.DataDir, store.IndexFileName))
			return nil
		},
	}
	return cmd
}
