package cli

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/stdland/internal/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout is reserved for the protocol
			log.SetOutput(os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.newApp(ctx, storeIfExists)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			server := mcp.NewServer(a.searcher, a.lookup, a.store)

			errChan := make(chan error, 1)
			go func() {
				log.Printf("%s v%s ready, listening on stdio...", mcp.ServerName, mcp.ServerVersion)
				errChan <- server.Serve(ctx)
			}()

			select {
			case <-ctx.Done():
				log.Printf("Shutting down...")
				return nil
			case err := <-errChan:
				return err
			}
		},
	}
}
