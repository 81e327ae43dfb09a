package cache

import (
	"context"
	"log/slog"

	"github.com/HendryAvila/schemagraph/internal/metrics"
	"github.com/HendryAvila/schemagraph/internal/orkg"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

// Lookup wraps an orkg.Lookup with the Store. Hits are served locally; misses
// go to the wrapped lookup and successful answers are written back. Cache
// read or write failures never fail a lookup, they fall through to remote.
type Lookup struct {
	next    orkg.Lookup
	store   *Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ orkg.Lookup = (*Lookup)(nil)

// NewLookup creates a caching Lookup. m and logger may be nil.
func NewLookup(next orkg.Lookup, store *Store, m *metrics.Metrics, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{next: next, store: store, metrics: m, logger: logger}
}

// FetchTemplate implements orkg.Lookup.
func (l *Lookup) FetchTemplate(ctx context.Context, id string) (*schema.Template, error) {
	t, ok, err := l.store.Template(ctx, id)
	if err != nil {
		l.logger.Warn("cache read failed", "template_id", id, "error", err)
	}
	l.metrics.ObserveCache(metrics.CacheKindTemplate, ok)
	if ok {
		return t, nil
	}

	t, err = l.next.FetchTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.store.PutTemplate(ctx, t); err != nil {
		l.logger.Warn("cache write failed", "template_id", id, "error", err)
	}
	return t, nil
}

// FindTemplatesTargetingClass implements orkg.Lookup.
func (l *Lookup) FindTemplatesTargetingClass(ctx context.Context, classID string) ([]string, error) {
	ids, ok, err := l.store.Candidates(ctx, classID)
	if err != nil {
		l.logger.Warn("cache read failed", "class_id", classID, "error", err)
	}
	l.metrics.ObserveCache(metrics.CacheKindClass, ok)
	if ok {
		return ids, nil
	}

	ids, err = l.next.FindTemplatesTargetingClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := l.store.PutCandidates(ctx, classID, ids); err != nil {
		l.logger.Warn("cache write failed", "class_id", classID, "error", err)
	}
	return ids, nil
}
