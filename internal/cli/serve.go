package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/stdland/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve std.land over HTTP",
		Long: `Serve the search page, the lookup redirects and the JSON API.

Requests for hosts starting with the git host prefix (default "git.") use the
git dataset; all others use std.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, addr string) error {
	a, err := opts.newApp(ctx, storeIfConfigured)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if addr != "" {
		a.cfg.Server.Addr = addr
	}

	for _, name := range a.catalog.Names() {
		ds, _ := a.catalog.Get(name)
		log.Printf("Loaded dataset %s: %d symbols from %s", name, ds.Len(), ds.Source)
	}

	srv, err := web.New(a.cfg, a.searcher, a.lookup)
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Println("Server stopped")
	return nil
}
