// Package mapping flattens a template set into the predicate mapping: a
// dictionary keyed by predicate (path) ID that describes every property and,
// for object properties, the subtemplate they lead to.
//
// The same mapping feeds the JSON export and the SPARQL prompt.
package mapping

import (
	"sort"

	"github.com/HendryAvila/schemagraph/internal/schema"
)

// DefaultMaxDepth is how many levels of subtemplate_properties are expanded
// below a top-level entry.
const DefaultMaxDepth = 2

// Unbounded expands subtemplates until a template repeats on the current path.
const Unbounded = -1

// Entry describes one property.
type Entry struct {
	Label                 string  `json:"label"`
	Cardinality           string  `json:"cardinality"`
	Description           string  `json:"description"`
	PredicateLabel        string  `json:"predicate_label"`
	ClassLabel            string  `json:"class_label,omitempty"`
	SubtemplateID         string  `json:"subtemplate_id,omitempty"`
	SubtemplateLabel      string  `json:"subtemplate_label,omitempty"`
	ClassID               string  `json:"class_id,omitempty"`
	SubtemplateProperties Mapping `json:"subtemplate_properties,omitempty"`
}

// Mapping is keyed by predicate ID.
type Mapping map[string]Entry

// Options bounds subtemplate expansion.
type Options struct {
	// MaxDepth caps subtemplate_properties nesting. 0 means DefaultMaxDepth;
	// a negative value (Unbounded) relies on the path guard alone.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`
	// CycleSafe stops expanding a subtemplate already being expanded higher up
	// the same path. Always on when MaxDepth is negative.
	CycleSafe bool `json:"cycle_safe" yaml:"cycle_safe"`
}

// DefaultOptions returns the two-level expansion.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth}
}

type builder struct {
	byClass   map[string]schema.Template
	maxDepth  int
	cycleSafe bool
}

// Build generates the mapping for templates. Every template contributes its
// properties at the top level; when two templates declare the same predicate
// the earlier template's entry is kept, so the root template wins. The ORKG
// frontend's generator lets the last template win instead.
func Build(templates []schema.Template, opts Options) Mapping {
	b := builder{
		byClass:   schema.IndexByTargetClass(templates),
		maxDepth:  opts.MaxDepth,
		cycleSafe: opts.CycleSafe,
	}
	switch {
	case b.maxDepth == 0:
		b.maxDepth = DefaultMaxDepth
	case b.maxDepth < 0:
		b.cycleSafe = true
	}

	out := make(Mapping)
	for _, t := range templates {
		onPath := map[string]bool{t.ID: true}
		for _, p := range t.Properties {
			if p.Path.ID == "" {
				continue
			}
			if _, exists := out[p.Path.ID]; exists {
				continue
			}
			out[p.Path.ID] = b.entry(p, 0, onPath)
		}
	}
	return out
}

func (b builder) entry(p schema.Property, depth int, onPath map[string]bool) Entry {
	e := Entry{
		Label:          p.Path.Label,
		Cardinality:    schema.Cardinality(p.MaxCount),
		Description:    firstNonEmpty(p.Description, p.Label, p.Path.Label),
		PredicateLabel: p.Path.Label,
	}
	if p.Class != nil {
		e.ClassLabel = p.Class.Label
		if p.Class.Label != "" {
			e.Label = p.Class.Label
		}
	}

	if !b.expandable(depth) {
		return e
	}
	sub, ok := b.byClass[p.ClassID()]
	if !ok {
		return e
	}
	e.SubtemplateID = sub.ID
	e.SubtemplateLabel = sub.Label
	e.ClassID = p.ClassID()

	if len(sub.Properties) == 0 || (b.cycleSafe && onPath[sub.ID]) {
		return e
	}

	onPath[sub.ID] = true
	defer delete(onPath, sub.ID)

	e.SubtemplateProperties = make(Mapping, len(sub.Properties))
	for _, sp := range sub.Properties {
		if sp.Path.ID == "" {
			continue
		}
		e.SubtemplateProperties[sp.Path.ID] = b.entry(sp, depth+1, onPath)
	}
	if len(e.SubtemplateProperties) == 0 {
		e.SubtemplateProperties = nil
	}
	return e
}

// expandable reports whether an entry at depth may carry subtemplate
// information and children.
func (b builder) expandable(depth int) bool {
	return b.maxDepth < 0 || depth < b.maxDepth
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Depth returns the deepest subtemplate_properties nesting in m: 0 when no
// entry has children.
func Depth(m Mapping) int {
	deepest := 0
	for _, e := range m {
		if len(e.SubtemplateProperties) == 0 {
			continue
		}
		if d := 1 + Depth(e.SubtemplateProperties); d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Keys returns the predicate IDs of m in sorted order.
func Keys(m Mapping) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the total number of entries in m, nested ones included.
func Count(m Mapping) int {
	n := len(m)
	for _, e := range m {
		n += Count(e.SubtemplateProperties)
	}
	return n
}
