package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the loaded datasets and what the database holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := opts.newApp(ctx, storeIfExists)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATASET\tSOURCE\tSYMBOLS\tFINGERPRINT\tBASE URL")
			for _, name := range a.catalog.Names() {
				ds, err := a.catalog.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.12s\t%s\n", ds.Name, ds.Source, ds.Len(), ds.Fingerprint, ds.BaseURL)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if a.store == nil {
				_, err := fmt.Fprintln(out, "\nNo database")
				return err
			}

			stored, err := a.store.ListDatasets(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nDatabase (%s):\n", a.cfg.Storage.Path)
			if len(stored) == 0 {
				_, err := fmt.Fprintln(out, "  empty")
				return err
			}

			tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATASET\tSOURCE\tSYMBOLS\tFILES\tKINDS\tINDEXED")
			for _, ds := range stored {
				status, err := a.store.GetStatus(ctx, ds.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
					ds.Name, ds.Source, status.SymbolsCount, status.FilesCount,
					formatKinds(status.KindCounts), status.LastIndexedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func formatKinds(counts map[string]int) string {
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, kind := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", kind, counts[kind])
	}
	return strings.Join(parts, " ")
}
