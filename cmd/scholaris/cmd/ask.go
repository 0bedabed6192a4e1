package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scholaris-ai/scholaris/internal/search"
)

func newAskCmd() *cobra.Command {
	var (
		jsonOutput  bool
		documentID  string
		section     string
		showSources bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the ingested corpus with citations",
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

			question := strings.Join(args, " ")
			filters := search.Filters{
				DocumentID: documentID,
				Section:    section,
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}

			result, err := p.Query(cmd.Context(), question, filters)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Answer)
			if len(result.Citations) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Sources:")
				for _, c := range result.Citations {
					if c.Page > 0 {
						fmt.Fprintf(out, "  [%d] %s (p. %d)\n", c.ID, c.Title, c.Page)
					} else {
						fmt.Fprintf(out, "  [%d] %s\n", c.ID, c.Title)
					}
					if showSources {
						fmt.Fprintf(out, "      %s\n", c.Excerpt)
					}
				}
			}
			fmt.Fprintf(out, "\nconfidence=%.2f model=%s latency=%s\n",
				result.Confidence, result.Model, result.Latency.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the full result as JSON")
	cmd.Flags().StringVar(&documentID, "document", "", "restrict retrieval to one document ID")
	cmd.Flags().StringVar(&section, "section", "", "restrict retrieval to one section")
	cmd.Flags().BoolVar(&showSources, "show-excerpts", false, "print cited excerpts")
	return cmd
}
