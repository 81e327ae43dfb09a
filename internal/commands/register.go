// Package commands contains all CLI command definitions.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/schemagraph/internal/config"
	"github.com/HendryAvila/schemagraph/internal/server"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	fixture    string
	noCache    bool
	logLevel   string
}

// NewRootCmd creates and returns the root command for the CLI.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "schemagraph",
		Short: "Explore ORKG template schemas as graphs, mappings and SPARQL prompts",
		Long: `schemagraph loads an ORKG template and every subtemplate reachable through
its properties, then projects the result as a positioned graph, a predicate
mapping, or a SPARQL generation prompt. It runs as an MCP server (serve), an
HTTP API (http), or one-shot export commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultPath(), "path to the YAML config file")
	pf.StringVar(&flags.fixture, "fixture", "", "serve templates from a local JSON fixture instead of the API")
	pf.BoolVar(&flags.noCache, "no-cache", false, "bypass the local template cache")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newHTTPCmd(flags),
		newGraphCmd(flags),
		newFlowCmd(flags),
		newMappingCmd(flags),
		newPromptCmd(flags),
		newCacheCmd(flags),
		newConfigCmd(flags),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads and validates the config file, applying flag overrides.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes text logs to w. stdout is reserved for command output
// and the MCP stdio transport.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	lvl, _ := cfg.SlogLevel()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// loadDeps builds the shared dependencies for a command.
func (f *globalFlags) loadDeps(cmd *cobra.Command, reg prometheus.Registerer) (*server.Deps, func(), error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	deps, cleanup, err := server.NewDeps(server.Options{
		Config:   cfg,
		Fixture:  f.fixture,
		NoCache:  f.noCache,
		Logger:   logger,
		Registry: reg,
	})
	if err != nil {
		return nil, nil, err
	}
	return deps, cleanup, nil
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // output file chosen by the user
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✅ Wrote %s\n", path)
	return nil
}
