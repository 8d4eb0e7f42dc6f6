package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/stdland/internal/finder"
	"github.com/dshills/stdland/internal/searcher"
)

func newFindCmd(opts *rootOptions) *cobra.Command {
	var (
		dataset string
		mode    string
	)

	cmd := &cobra.Command{
		Use:   "find [query]",
		Short: "Search interactively and print the chosen URL",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			searchMode, err := searcher.ParseMode(mode)
			if err != nil {
				return err
			}

			a, err := opts.newApp(cmd.Context(), storeIfConfigured)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			// The UI draws on stderr so the chosen URL can be piped
			url, err := finder.Run(cmd.Context(), a.searcher, finder.Options{
				Dataset: dataset,
				Mode:    searchMode,
				Limit:   a.cfg.Search.LiveResults,
				Query:   strings.Join(args, " "),
			}, os.Stdin, os.Stderr)
			if err != nil {
				return err
			}

			if url != "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataset, "dataset", "", "dataset to search (default std)")
	f.StringVar(&mode, "mode", "fuzzy", "search mode: fuzzy, keyword or hybrid")
	return cmd
}
