// Package engine runs one schema exploration end to end: load the template
// flow from a root, flatten it, then project the graph and the predicate
// mapping from the same template set.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/schemagraph/internal/flow"
	"github.com/HendryAvila/schemagraph/internal/graph"
	"github.com/HendryAvila/schemagraph/internal/layout"
	"github.com/HendryAvila/schemagraph/internal/mapping"
	"github.com/HendryAvila/schemagraph/internal/metrics"
	"github.com/HendryAvila/schemagraph/internal/orkg"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

// Options configures an Explorer.
type Options struct {
	Loader  flow.Options
	Layout  layout.Options
	Mapping mapping.Options
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// DefaultOptions returns the defaults of every stage.
func DefaultOptions() Options {
	return Options{
		Loader:  flow.DefaultOptions(),
		Layout:  layout.DefaultOptions(),
		Mapping: mapping.DefaultOptions(),
	}
}

// Result is everything one exploration produces.
type Result struct {
	RunID         string            `json:"run_id"`
	RootID        string            `json:"root_id"`
	RootLabel     string            `json:"root_label"`
	TargetClassID string            `json:"target_class_id,omitempty"`
	Root          *flow.Node        `json:"flow"`
	Templates     []schema.Template `json:"templates"`
	Graph         *graph.Graph      `json:"graph"`
	Mapping       mapping.Mapping   `json:"mapping"`
	Duration      time.Duration     `json:"duration_ns"`
}

// RootTemplate returns the root template (element 0 of Templates).
func (r *Result) RootTemplate() schema.Template {
	if len(r.Templates) == 0 {
		return schema.Template{ID: r.RootID}
	}
	return r.Templates[0]
}

// Explorer runs explorations against a Lookup.
type Explorer struct {
	loader  *flow.Loader
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates an Explorer. The loader shares the explorer's logger and
// metrics unless they are set on opts.Loader.
func New(lookup orkg.Lookup, opts Options) *Explorer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Loader.Logger == nil {
		opts.Loader.Logger = logger
	}
	if opts.Loader.Metrics == nil {
		opts.Loader.Metrics = opts.Metrics
	}
	return &Explorer{
		loader:  flow.NewLoader(lookup, opts.Loader),
		opts:    opts,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// Explore loads rootID and derives the graph and mapping. A root failure is
// returned as is (it wraps flow.ErrRootUnavailable).
func (e *Explorer) Explore(ctx context.Context, rootID string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.logger.With("run_id", runID, "root_id", rootID)

	root, err := e.loader.LoadRun(ctx, runID, rootID)
	if err != nil {
		e.metrics.ObserveExploration(err, 0)
		log.Error("exploration failed", "error", err)
		return nil, err
	}

	templates := flow.Flatten(root)
	res := &Result{
		RunID:         runID,
		RootID:        root.ID,
		RootLabel:     root.Label,
		TargetClassID: root.TargetClassID(),
		Root:          root,
		Templates:     templates,
		Graph:         graph.Build(templates, root.NodeID(), e.opts.Layout),
		Mapping:       mapping.Build(templates, e.opts.Mapping),
		Duration:      time.Since(start),
	}

	e.metrics.ObserveExploration(nil, len(templates))
	log.Info("exploration complete",
		"templates", len(templates),
		"edges", res.Graph.Stats.TotalEdges,
		"predicates", len(res.Mapping),
		"duration", res.Duration,
	)
	return res, nil
}

// Graph explores rootID and returns only the graph.
func (e *Explorer) Graph(ctx context.Context, rootID string) (*graph.Graph, error) {
	res, err := e.Explore(ctx, rootID)
	if err != nil {
		return nil, err
	}
	return res.Graph, nil
}

// Mapping explores rootID and returns only the predicate mapping.
func (e *Explorer) Mapping(ctx context.Context, rootID string) (mapping.Mapping, error) {
	res, err := e.Explore(ctx, rootID)
	if err != nil {
		return nil, err
	}
	return res.Mapping, nil
}
