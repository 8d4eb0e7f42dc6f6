package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/stdland/internal/storage"
)

// rootOptions are the flags shared by every command
type rootOptions struct {
	configPath string
	dbPath     string
}

// NewRootCmd builds the stdland command tree
func NewRootCmd(version, buildTime string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "stdland",
		Short: "Fuzzy finder for the Deno standard library",
		Long: `stdland finds symbols of the Deno standard library by fuzzy name or path.

It serves std.land (a page that redirects /serve straight to the source of
serve), answers MCP tool calls, searches from the terminal and builds the
symbol datasets from a deno_std checkout.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"stdland %s\nBuild Time: %s\nBuild Mode: %s\nSQLite Driver: %s\n",
		version, buildTime, storage.BuildMode, storage.DriverName,
	))

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config.yaml (default $STDLAND_CONFIG)")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides storage.path)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newMCPCmd(opts),
		newSearchCmd(opts),
		newFindCmd(opts),
		newIndexCmd(opts),
		newImportCmd(opts),
		newStatusCmd(opts),
	)

	return rootCmd
}

// Execute runs the command tree against os.Args
func Execute(version, buildTime string) error {
	return NewRootCmd(version, buildTime).Execute()
}
