package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/schemagraph/internal/httpapi"
	"github.com/HendryAvila/schemagraph/internal/server"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server using the stdio transport. Configure it in any MCP
client (Claude Desktop, Cursor, VS Code) with the command "schemagraph serve".`,
		Example: `  # Start the MCP server
  schemagraph serve

  # Serve templates from a fixture for offline use
  schemagraph serve --fixture templates.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := flags.loadDeps(cmd, nil)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			return mcpserver.ServeStdio(server.New(deps))
		},
	}
}

func newHTTPCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Start the HTTP API",
		Long: `Serve graphs, flows, mappings and prompts over HTTP:

  GET /v1/templates/{id}            full exploration result
  GET /v1/templates/{id}/graph      positioned node/edge graph
  GET /v1/templates/{id}/flow       nested template tree
  GET /v1/templates/{id}/mapping    predicate mapping (?download=1 for an attachment)
  GET /v1/templates/{id}/prompt     SPARQL prompt (?question=...)
  GET /healthz, /metrics`,
		Example: `  schemagraph http --addr :8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			deps, cleanup, err := flags.loadDeps(cmd, reg)
			if err != nil {
				return err
			}
			defer cleanup()

			if addr == "" {
				addr = deps.Config.HTTP.Addr
			}
			router := httpapi.NewRouter(httpapi.Options{
				Explorer:   deps.Explorer,
				Renderer:   deps.Renderer,
				Logger:     deps.Logger,
				Gatherer:   reg,
				CORSOrigin: deps.Config.HTTP.CORSOrigin,
			})

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return httpapi.Run(ctx, addr, router, deps.Logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// commandContext returns the command's context, or Background when the
// command runs outside ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
