package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLiteratureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "literature",
		Aliases: []string{"lit"},
		Short:   "Search external literature databases",
	}
	cmd.AddCommand(newLiteratureSearchCmd())
	cmd.AddCommand(newLiteratureGetCmd())
	return cmd
}

func newLiteratureSearchCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search PubMed, arXiv, and Semantic Scholar",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			agg := newAggregatorFromConfig(cfg)
			defer agg.Close()

			records, err := agg.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			out := cmd.OutOrStdout()
			for i, r := range records {
				fmt.Fprintf(out, "%2d. %s\n", i+1, r.Title)
				fmt.Fprintf(out, "    %s", r.Source)
				if r.Year > 0 {
					fmt.Fprintf(out, " (%d)", r.Year)
				}
				if r.DOI != "" {
					fmt.Fprintf(out, " doi:%s", r.DOI)
				}
				fmt.Fprintf(out, " score=%.2f\n", r.Score)
				if len(r.Authors) > 0 {
					fmt.Fprintf(out, "    %s\n", formatAuthors(r.Authors))
				}
			}
			fmt.Fprintf(out, "\n%d results\n", len(records))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results per source")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit records as JSON")
	return cmd
}

func newLiteratureGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <paper-id>",
		Short: "Fetch one paper by its source-native identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			agg := newAggregatorFromConfig(cfg)
			defer agg.Close()

			record, err := agg.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("paper %q not found in any source", args[0])
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		},
	}
	return cmd
}

func formatAuthors(authors []string) string {
	if len(authors) <= 3 {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:3], ", ") + ", et al."
}
