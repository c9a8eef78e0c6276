package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadopc/ctxstore/internal/config"
	"github.com/sadopc/ctxstore/internal/mcp"
)

func newMCPCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the store as MCP tools",
		Long: `Serve the context store to an MCP client.

The stdio transport (default) is what desktop clients launch as a
subprocess. The http transport serves Streamable HTTP on --mcp-addr.
Logs always go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := e.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			srv := mcp.New(st, mcp.WithLogger(e.logger), mcp.WithClock(e.now))
			return srv.Serve(ctx, mcp.Transport(e.cfg.MCP.Transport), e.cfg.MCP.Addr)
		},
	}
	cmd.Flags().String(config.FlagName(config.KeyMCPTransport), "", "transport: stdio or http")
	cmd.Flags().String(config.FlagName(config.KeyMCPAddr), "", "listen address for the http transport")
	return cmd
}
