// Package schema defines the template data model shared by every stage of
// the schema graph engine.
//
// A Template describes the shape of a class of knowledge-graph resources via
// an ordered list of properties. Object-typed properties point at another
// class through Class; that class ID is the join key to the template whose
// TargetClass matches it. JSON field names follow the remote template API so
// fetched documents decode directly into these types.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Cardinality labels used by the predicate mapping.
const (
	OneToOne  = "one to one"
	OneToMany = "one to many"
)

// instancePrefix marks identifiers of instance templates (resources), as
// opposed to raw classes or predicates.
const instancePrefix = "R"

// Ref is an identity plus a human-readable label.
type Ref struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Property is one declared attribute of a template (a schema edge).
type Property struct {
	ID          string `json:"id"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	MinCount    *int   `json:"min_count"`
	MaxCount    *int   `json:"max_count"`
	Path        Ref    `json:"path"`
	Class       *Ref   `json:"class,omitempty"`
	Datatype    *Ref   `json:"datatype,omitempty"`
}

// ClassID returns the referenced class ID, or "" for literal-typed properties.
func (p Property) ClassID() string {
	if p.Class == nil {
		return ""
	}
	return p.Class.ID
}

// Template is a schema definition fetched from the remote lookup.
type Template struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	TargetClass *Ref       `json:"target_class,omitempty"`
	Properties  []Property `json:"properties"`
}

// TargetClassID returns the target class ID, or "" when the template has none.
func (t Template) TargetClassID() string {
	if t.TargetClass == nil {
		return ""
	}
	return t.TargetClass.ID
}

// NodeID is the template's identity in the visual graph: the target class ID
// when present, otherwise the template's own ID.
func (t Template) NodeID() string {
	if id := t.TargetClassID(); id != "" {
		return id
	}
	return t.ID
}

// SortedProperties returns a copy of the properties ordered by Order.
// Properties with equal Order keep their original relative position.
func (t Template) SortedProperties() []Property {
	out := make([]Property, len(t.Properties))
	copy(out, t.Properties)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// IsInstanceID reports whether id looks like an instance-template identifier.
func IsInstanceID(id string) bool {
	return strings.HasPrefix(id, instancePrefix) && len(id) > len(instancePrefix)
}

// Cardinality classifies a property by its upper bound. A nil maxCount means
// unbounded.
func Cardinality(maxCount *int) string {
	if maxCount == nil || *maxCount > 1 {
		return OneToMany
	}
	return OneToOne
}

// FormatCardinality renders bounds as "[min, max]", using 0 for a missing
// minimum and * for an unbounded maximum.
func FormatCardinality(minCount, maxCount *int) string {
	lo := 0
	if minCount != nil {
		lo = *minCount
	}
	hi := "*"
	if maxCount != nil {
		hi = fmt.Sprintf("%d", *maxCount)
	}
	return fmt.Sprintf("[%d, %s]", lo, hi)
}

// IndexByTargetClass maps each template's target class ID to the template.
// Templates without a target class are skipped; when two templates target the
// same class the first one wins.
func IndexByTargetClass(templates []Template) map[string]Template {
	idx := make(map[string]Template, len(templates))
	for _, t := range templates {
		id := t.TargetClassID()
		if id == "" {
			continue
		}
		if _, exists := idx[id]; exists {
			continue
		}
		idx[id] = t
	}
	return idx
}

// Count is a convenience for building *int bounds in literals and tests.
func Count(n int) *int {
	return &n
}
