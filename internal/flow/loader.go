package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/schemagraph/internal/metrics"
	"github.com/HendryAvila/schemagraph/internal/orkg"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

// ErrRootUnavailable is returned when the root template cannot be fetched.
var ErrRootUnavailable = errors.New("flow: root template unavailable")

// CandidatePolicy picks one template among those targeting a class.
type CandidatePolicy string

const (
	// CandidateFirst takes the first candidate in lookup response order.
	CandidateFirst CandidatePolicy = "first"
	// CandidateLowest takes the lexicographically smallest candidate ID.
	CandidateLowest CandidatePolicy = "lowest"
)

// ParseCandidatePolicy validates s. Empty means CandidateFirst.
func ParseCandidatePolicy(s string) (CandidatePolicy, error) {
	switch CandidatePolicy(s) {
	case "", CandidateFirst:
		return CandidateFirst, nil
	case CandidateLowest:
		return CandidateLowest, nil
	}
	return "", fmt.Errorf("flow: unknown candidate policy %q", s)
}

func (p CandidatePolicy) pick(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	if p == CandidateLowest {
		return slices.Min(ids)
	}
	return ids[0]
}

// Options tunes a Loader.
type Options struct {
	Concurrency     int           // sibling property resolutions in flight per node; < 1 means 1
	PropertyTimeout time.Duration // per property resolution; 0 means DefaultPropertyTimeout
	Policy          CandidatePolicy
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

// DefaultPropertyTimeout bounds a single property resolution.
const DefaultPropertyTimeout = 15 * time.Second

// DefaultOptions returns the loader defaults: four sibling resolutions in
// flight and the first-candidate policy.
func DefaultOptions() Options {
	return Options{
		Concurrency:     4,
		PropertyTimeout: DefaultPropertyTimeout,
		Policy:          CandidateFirst,
	}
}

// Loader walks a template's object-typed properties recursively, following
// each referenced class to the template that targets it.
type Loader struct {
	lookup orkg.Lookup
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a Loader over lookup.
func NewLoader(lookup orkg.Lookup, opts Options) *Loader {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PropertyTimeout <= 0 {
		opts.PropertyTimeout = DefaultPropertyTimeout
	}
	if opts.Policy == "" {
		opts.Policy = CandidateFirst
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{lookup: lookup, opts: opts, logger: logger}
}

// Load builds the neighbor tree rooted at templateID. Every template appears
// at most once in the tree. Failures below the root degrade to a missing
// neighbor; a root failure returns an error wrapping ErrRootUnavailable.
func (l *Loader) Load(ctx context.Context, templateID string) (*Node, error) {
	runID := uuid.NewString()
	return l.LoadRun(ctx, runID, templateID)
}

// LoadRun is Load with a caller-supplied run ID for log correlation.
func (l *Loader) LoadRun(ctx context.Context, runID, templateID string) (*Node, error) {
	log := l.logger.With("run_id", runID, "root_id", templateID)
	visited := NewVisited()

	root, err := l.loadFlow(ctx, log, templateID, visited)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootUnavailable, templateID, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: %s", ErrRootUnavailable, templateID)
	}
	log.Debug("flow loaded", "templates", visited.Len())
	return root, nil
}

// loadFlow returns nil, nil when templateID was already claimed.
func (l *Loader) loadFlow(ctx context.Context, log *slog.Logger, templateID string, visited *Visited) (*Node, error) {
	if !visited.Visit(templateID) {
		return nil, nil
	}
	tpl, err := l.lookup.FetchTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return l.expand(ctx, log, tpl, visited), nil
}

// expand resolves tpl's object-typed properties into neighbors.
func (l *Loader) expand(ctx context.Context, log *slog.Logger, tpl *schema.Template, visited *Visited) *Node {
	node := &Node{Template: *tpl}

	props := tpl.Properties
	children := make([]*Node, len(props))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, p := range props {
		if p.ClassID() == "" {
			continue
		}
		g.Go(func() error {
			children[i] = l.resolveProperty(gctx, log, tpl.ID, p, visited)
			return nil
		})
	}
	_ = g.Wait()

	node.Neighbors = make([]*Node, 0, len(children))
	for _, c := range children {
		if c == nil || !schema.IsInstanceID(c.ID) {
			continue
		}
		node.Neighbors = append(node.Neighbors, c)
	}
	return node
}

// resolveProperty finds the template for p's class and loads it. Any failure
// is logged and yields nil. PropertyTimeout bounds each lookup call on its
// own; the neighbor's subtree runs under ctx.
func (l *Loader) resolveProperty(ctx context.Context, log *slog.Logger, parentID string, p schema.Property, visited *Visited) *Node {
	classID := p.ClassID()
	plog := log.With("template_id", parentID, "property_id", p.ID, "class_id", classID)

	findCtx, cancel := context.WithTimeout(ctx, l.opts.PropertyTimeout)
	ids, err := l.lookup.FindTemplatesTargetingClass(findCtx, classID)
	cancel()
	if err != nil {
		l.opts.Metrics.PropertyFailed()
		plog.Warn("candidate lookup failed", "error", err)
		return nil
	}

	candidates := slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
		return !schema.IsInstanceID(id)
	})
	chosen := l.opts.Policy.pick(candidates)
	if chosen == "" || !visited.Visit(chosen) {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, l.opts.PropertyTimeout)
	child, err := l.lookup.FetchTemplate(fetchCtx, chosen)
	cancel()
	if err != nil {
		l.opts.Metrics.PropertyFailed()
		plog.Warn("neighbor template fetch failed", "neighbor_id", chosen, "error", err)
		return nil
	}
	return l.expand(ctx, log, child, visited)
}
