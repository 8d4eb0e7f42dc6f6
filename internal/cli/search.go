package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/stdland/internal/searcher"
	"github.com/dshills/stdland/pkg/types"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		dataset string
		limit   int
		mode    string
		all     bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search symbols, printing the redirect target when one match stands out",
		Example: `  stdland search serve
  stdland search http/server.ts
  stdland search --all --mode hybrid parse`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			searchMode, err := searcher.ParseMode(mode)
			if err != nil {
				return err
			}

			a, err := opts.newApp(cmd.Context(), storeIfConfigured)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if dataset == "" {
				dataset = a.catalog.Default()
			}
			out := cmd.OutOrStdout()

			// The redirect heuristic is calibrated for fuzzy scores
			if !all && searchMode == searcher.SearchModeFuzzy {
				res, err := a.lookup.Resolve(cmd.Context(), dataset, query)
				if err != nil {
					return err
				}
				if res.Redirect != "" {
					if asJSON {
						return writeJSON(out, map[string]string{"query": query, "redirect": res.Redirect})
					}
					_, err := fmt.Fprintln(out, res.Redirect)
					return err
				}
			}

			resp, err := a.searcher.Search(cmd.Context(), searcher.SearchRequest{
				Query:   query,
				Dataset: dataset,
				Limit:   limit,
				Mode:    searchMode,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(out, resp.Results)
			}
			if len(resp.Results) == 0 {
				_, err := fmt.Fprintf(out, "No results for %q\n", query)
				return err
			}
			return printResults(out, resp.Results)
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataset, "dataset", "", "dataset to search (default std)")
	f.IntVar(&limit, "limit", searcher.DefaultLimit, "maximum number of results")
	f.StringVar(&mode, "mode", "fuzzy", "search mode: fuzzy, keyword or hybrid")
	f.BoolVar(&all, "all", false, "always list results instead of printing a redirect target")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printResults(w io.Writer, results []types.SearchResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(tw, "%.4f\t%s\t%s\t%s\n", r.Score, r.Item.Name, r.Item.Type, r.URL)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
