package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/internal/indexer"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		dataset string
		file    string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Save a JSON data file to the database",
		Example: `  stdland import --dataset std --file deno-data.stable.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := catalog.LoadFile(file)
			if err != nil {
				return err
			}

			conf, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStorage(conf)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := indexer.New(store).ImportSymbols(cmd.Context(), dataset, baseURL, symbols)
			if err != nil {
				return err
			}

			printStats(cmd.ErrOrStderr(), stats)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataset, "dataset", "std", "dataset name")
	f.StringVar(&file, "file", "", "JSON data file")
	f.StringVar(&baseURL, "base-url", "", "base URL recorded with the dataset")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
