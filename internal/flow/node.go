// Package flow discovers the template graph reachable from a root template
// and flattens it into a deduplicated template set.
package flow

import (
	"iter"
	"sync"

	"github.com/HendryAvila/schemagraph/internal/schema"
)

// Node is a template together with the neighbor templates its object-typed
// properties resolve to.
type Node struct {
	schema.Template
	Neighbors []*Node `json:"neighbors"`
}

// Visited is the set of template IDs already claimed by a traversal. One set
// is shared by every branch of a single Load call.
type Visited struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewVisited creates an empty set.
func NewVisited() *Visited {
	return &Visited{ids: make(map[string]struct{})}
}

// Visit marks id and reports whether it was not yet present.
func (v *Visited) Visit(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.ids[id]; ok {
		return false
	}
	v.ids[id] = struct{}{}
	return true
}

// Has reports whether id was visited.
func (v *Visited) Has(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.ids[id]
	return ok
}

// Len returns the number of visited IDs.
func (v *Visited) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.ids)
}

// Walk yields root and its descendants depth-first, pre-order, following
// Neighbors in order. Nil nodes are skipped.
func Walk(root *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		walk(root, yield)
	}
}

func walk(n *Node, yield func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(n) {
		return false
	}
	for _, child := range n.Neighbors {
		if !walk(child, yield) {
			return false
		}
	}
	return true
}

// Flatten returns every distinct template in the tree in depth-first
// pre-order. The first occurrence of an ID wins and the root is element 0.
// Nodes with an empty ID are not emitted but their subtrees are walked.
func Flatten(root *Node) []schema.Template {
	var out []schema.Template
	seen := make(map[string]struct{})
	for n := range Walk(root) {
		if n.ID == "" {
			continue
		}
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n.Template)
	}
	return out
}

// Count returns the number of nodes in the tree.
func Count(root *Node) int {
	n := 0
	for range Walk(root) {
		n++
	}
	return n
}
