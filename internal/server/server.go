// Package server wires all components and creates the MCP server instance.
//
// This is the composition root: it builds the lookup chain, the explorer and
// the renderer from configuration, and injects them into the tools, prompts
// and resources. The HTTP API and the CLI commands reuse the same Deps.
package server

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/HendryAvila/schemagraph/internal/cache"
	"github.com/HendryAvila/schemagraph/internal/config"
	"github.com/HendryAvila/schemagraph/internal/engine"
	"github.com/HendryAvila/schemagraph/internal/metrics"
	"github.com/HendryAvila/schemagraph/internal/orkg"
	"github.com/HendryAvila/schemagraph/internal/prompts"
	"github.com/HendryAvila/schemagraph/internal/resources"
	"github.com/HendryAvila/schemagraph/internal/templates"
	"github.com/HendryAvila/schemagraph/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Options selects how dependencies are built.
type Options struct {
	Config *config.Config

	// Fixture, when set, serves templates from a local JSON file instead of
	// the remote API. The cache is not used with fixtures.
	Fixture string

	// NoCache disables the cache even when the config enables it.
	NoCache bool

	Logger *slog.Logger

	// Registry receives the metrics collectors. Nil keeps them unregistered.
	Registry prometheus.Registerer
}

// Deps holds the shared dependencies of every entry point.
type Deps struct {
	Config   *config.Config
	Explorer *engine.Explorer
	Renderer *templates.EmbedRenderer
	Cache    *cache.Store // nil when caching is disabled or failed to open
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// NewDeps builds the dependency graph. The returned cleanup closes the cache
// and must be called on shutdown. It is always non-nil.
//
// The cache is an optional subsystem: if it fails to open, lookups go
// straight to the remote API and a warning is logged.
func NewDeps(opts Options) (*Deps, func(), error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := metrics.New(opts.Registry)

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	var (
		lookup  orkg.Lookup
		store   *cache.Store
		cleanup = noop
	)
	if opts.Fixture != "" {
		static, err := orkg.LoadFixture(opts.Fixture)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("serving templates from fixture", "path", opts.Fixture, "templates", len(static.Templates()))
		lookup = static
	} else {
		client, err := orkg.NewClient(cfg.ClientConfig(Version),
			orkg.WithMetrics(m),
			orkg.WithLogger(logger),
		)
		if err != nil {
			return nil, noop, fmt.Errorf("creating API client: %w", err)
		}
		lookup = client

		if cfg.Cache.Enabled && !opts.NoCache {
			store, err = cache.New(cfg.CacheStoreConfig())
			if err != nil {
				logger.Warn("template cache disabled", "error", err)
				store = nil
			} else {
				cleanup = func() {
					if err := store.Close(); err != nil {
						logger.Warn("cache store close", "error", err)
					}
				}
				lookup = cache.NewLookup(client, store, m, logger)
			}
		}
	}

	eopts := engine.Options{
		Loader:  cfg.LoaderOptions(),
		Layout:  cfg.LayoutOptions(),
		Mapping: cfg.MappingOptions(),
		Logger:  logger,
		Metrics: m,
	}

	return &Deps{
		Config:   cfg,
		Explorer: engine.New(lookup, eopts),
		Renderer: renderer,
		Cache:    store,
		Metrics:  m,
		Logger:   logger,
	}, cleanup, nil
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
func New(d *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"schemagraph",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register exploration tools ---

	exploreTool := tools.NewExploreTool(d.Explorer)
	s.AddTool(exploreTool.Definition(), exploreTool.Handle)

	graphTool := tools.NewGraphTool(d.Explorer)
	s.AddTool(graphTool.Definition(), graphTool.Handle)

	mappingTool := tools.NewMappingTool(d.Explorer)
	s.AddTool(mappingTool.Definition(), mappingTool.Handle)

	promptTool := tools.NewSPARQLPromptTool(d.Explorer, d.Renderer)
	s.AddTool(promptTool.Definition(), promptTool.Handle)

	// --- Register cache tool ---
	//
	// Only when the cache subsystem is up.
	if d.Cache != nil {
		cacheTool := tools.NewCacheTool(d.Cache)
		s.AddTool(cacheTool.Definition(), cacheTool.Handle)
	}

	// --- Register prompts ---

	sparqlPrompt := prompts.NewSPARQLQueryPrompt()
	s.AddPrompt(sparqlPrompt.Definition(), sparqlPrompt.Handle)

	explorePrompt := prompts.NewExplorePrompt()
	s.AddPrompt(explorePrompt.Definition(), explorePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(d.Explorer)
	s.AddResourceTemplate(resourceHandler.MappingTemplate(), resourceHandler.HandleMapping)
	s.AddResourceTemplate(resourceHandler.GraphTemplate(), resourceHandler.HandleGraph)

	return s
}

// noop is the cleanup used when there is nothing to close.
func noop() {}

// serverInstructions returns the system instructions that tell the AI how
// to use schemagraph.
func serverInstructions() string {
	return `You have access to schemagraph, an explorer for ORKG (Open Research Knowledge Graph) templates.

A template describes the structure of research contributions: each property
points to a predicate and, for object properties, to a class. When another
template targets that class, it is a subtemplate, and schemagraph follows it
recursively to build the whole schema.

## TOOLS
- schema_explore: overview of a template and its subtemplates by graph level. Start here.
- schema_graph: the node/edge graph as JSON, for drawing diagrams.
- schema_mapping: the predicate mapping as JSON, keyed by predicate ID.
- schema_sparql_prompt: a ready-made prompt for writing SPARQL over the template's data.
- schema_cache: inspect or clear the local template cache (when enabled).

## RULES
- Template IDs are resource IDs such as R186491. Class IDs (C...) and predicate IDs (P...) are not accepted.
- Only use predicates that appear in the mapping or schema table when writing SPARQL.
- Subtemplates that fail to load are skipped; the rest of the schema is still returned.`
}
