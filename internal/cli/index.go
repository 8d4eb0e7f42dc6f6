package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/stdland/internal/indexer"
	"github.com/dshills/stdland/internal/storage"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var (
		dataset string
		root    string
		out     string
		cfg     indexer.Config
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Extract symbols from a deno_std checkout",
		Long: `Extract the exported symbols of every module under --root.

Without --out the dataset is saved to the database, where a dataset
configured with source "sqlite" picks it up. With --out the symbols are
written as a JSON data file instead ("-" for stdout).`,
		Example: `  stdland index --dataset git --root ~/src/deno_std
  stdland index --dataset std --root ~/src/deno_std --out std.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var store storage.Storage
			if out == "" {
				conf, err := opts.loadConfig()
				if err != nil {
					return err
				}
				if store, err = openStorage(conf); err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
			}

			symbols, stats, err := indexer.New(store).IndexDirectory(ctx, dataset, root, &cfg)
			if err != nil {
				return err
			}

			if out != "" {
				if err := writeSymbols(cmd.OutOrStdout(), out, symbols); err != nil {
					return err
				}
			}

			printStats(cmd.ErrOrStderr(), stats)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataset, "dataset", "git", "dataset name")
	f.StringVar(&root, "root", "", "path to the deno_std checkout")
	f.StringVarP(&out, "out", "o", "", "write a JSON data file instead of saving to the database")
	f.IntVar(&cfg.Workers, "workers", 0, "concurrent parsers (default: number of CPUs)")
	f.BoolVar(&cfg.IncludeTests, "include-tests", false, "index test and bench modules")
	f.BoolVar(&cfg.IncludeInternal, "include-internal", false, "index _-prefixed modules")
	f.StringVar(&cfg.BaseURL, "base-url", "", "base URL recorded with the dataset")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}

func writeSymbols(stdout io.Writer, out string, symbols any) error {
	if out == "-" {
		return writeJSON(stdout, symbols)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := writeJSON(f, symbols); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printStats(w io.Writer, stats *indexer.Statistics) {
	fmt.Fprintf(w, "Dataset %s: %d files indexed, %d failed, %d symbols in %v\n",
		stats.Dataset, stats.FilesIndexed, stats.FilesFailed, stats.SymbolsExtracted, stats.Duration)
	switch {
	case stats.Unchanged:
		fmt.Fprintln(w, "Stored dataset is up to date")
	case stats.Persisted:
		fmt.Fprintf(w, "Saved (fingerprint %.12s)\n", stats.Fingerprint)
	}

	for i, msg := range stats.ErrorMessages {
		if i == 5 {
			fmt.Fprintf(w, "... and %d more errors\n", len(stats.ErrorMessages)-5)
			break
		}
		fmt.Fprintf(w, "  %s\n", msg)
	}
}
