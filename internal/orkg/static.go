package orkg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/HendryAvila/schemagraph/internal/schema"
)

// StaticLookup serves templates from memory. Candidates for a class are the
// templates targeting it, in insertion order. Failures and delays can be
// injected per ID to exercise degraded traversals.
type StaticLookup struct {
	mu         sync.RWMutex
	templates  map[string]schema.Template
	order      []string
	failures   map[string]error
	classFails map[string]error
	delays     map[string]time.Duration
	fetches    int
	finds      int
}

// NewStaticLookup creates a StaticLookup holding templates.
func NewStaticLookup(templates ...schema.Template) *StaticLookup {
	s := &StaticLookup{
		templates:  make(map[string]schema.Template),
		failures:   make(map[string]error),
		classFails: make(map[string]error),
		delays:     make(map[string]time.Duration),
	}
	for _, t := range templates {
		s.Add(t)
	}
	return s
}

// Add stores t, replacing any template with the same ID.
func (s *StaticLookup) Add(t schema.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.templates[t.ID] = t
}

// FailTemplate makes FetchTemplate(id) return err.
func (s *StaticLookup) FailTemplate(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id] = err
}

// FailClass makes FindTemplatesTargetingClass(classID) return err.
func (s *StaticLookup) FailClass(classID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classFails[classID] = err
}

// Delay makes FetchTemplate(id) wait d (or until the context is done).
func (s *StaticLookup) Delay(id string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[id] = d
}

// Calls returns how many fetches and class queries were served.
func (s *StaticLookup) Calls() (fetches, finds int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetches, s.finds
}

// Templates returns every stored template in insertion order.
func (s *StaticLookup) Templates() []schema.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.Template, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.templates[id])
	}
	return out
}

// FetchTemplate implements Lookup.
func (s *StaticLookup) FetchTemplate(ctx context.Context, id string) (*schema.Template, error) {
	s.mu.Lock()
	s.fetches++
	delay := s.delays[id]
	failure := s.failures[id]
	t, ok := s.templates[id]
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if failure != nil {
		return nil, failure
	}
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return &t, nil
}

// FindTemplatesTargetingClass implements Lookup.
func (s *StaticLookup) FindTemplatesTargetingClass(ctx context.Context, classID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.classFails[classID]; err != nil {
		return nil, err
	}

	var ids []string
	for _, id := range s.order {
		if s.templates[id].TargetClassID() == classID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// fixtureFile accepts either a bare array of templates or an object with a
// "templates" array.
type fixtureFile struct {
	Templates []schema.Template `json:"templates"`
}

// LoadFixture reads a JSON fixture file into a StaticLookup.
func LoadFixture(path string) (*StaticLookup, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("orkg: reading fixture: %w", err)
	}

	var templates []schema.Template
	if err := json.Unmarshal(data, &templates); err != nil {
		var wrapped fixtureFile
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("orkg: parsing fixture %s: %w", path, err)
		}
		templates = wrapped.Templates
	}
	return NewStaticLookup(templates...), nil
}
