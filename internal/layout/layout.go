// Package layout assigns 2-D coordinates to a template set using a
// breadth-first layering from the root: x grows with BFS depth and nodes in
// the same layer are spread symmetrically around y = 0.
package layout

import (
	"github.com/HendryAvila/schemagraph/internal/schema"
)

// Position is a node's top-left coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Options holds the spacing between layers and between siblings.
type Options struct {
	HorizontalSpacing float64 `json:"horizontal_spacing"`
	VerticalSpacing   float64 `json:"vertical_spacing"`
}

// DefaultOptions returns 400 units between layers and 300 between siblings.
func DefaultOptions() Options {
	return Options{HorizontalSpacing: 400, VerticalSpacing: 300}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.HorizontalSpacing <= 0 {
		o.HorizontalSpacing = d.HorizontalSpacing
	}
	if o.VerticalSpacing <= 0 {
		o.VerticalSpacing = d.VerticalSpacing
	}
	return o
}

// Adjacency returns the distinct node IDs in template order and, for each
// node, its outgoing neighbors in property order. A property links to a node
// when its class ID is the target class of a template in the set. Duplicate
// node IDs keep the first template's properties.
func Adjacency(templates []schema.Template) (nodes []string, adj map[string][]string) {
	byClass := schema.IndexByTargetClass(templates)
	adj = make(map[string][]string, len(templates))
	for _, t := range templates {
		src := t.NodeID()
		if _, dup := adj[src]; dup {
			continue
		}
		nodes = append(nodes, src)
		adj[src] = nil
		for _, p := range t.SortedProperties() {
			target, ok := byClass[p.ClassID()]
			if !ok {
				continue
			}
			adj[src] = append(adj[src], target.NodeID())
		}
	}
	return nodes, adj
}

// Levels runs the BFS from rootID and returns each reachable node's depth plus
// the nodes of each level in discovery order. An empty or unknown rootID
// falls back to the first template's node.
func Levels(templates []schema.Template, rootID string) (depth map[string]int, layers [][]string) {
	nodes, adj := Adjacency(templates)
	depth = make(map[string]int, len(nodes))
	if len(nodes) == 0 {
		return depth, nil
	}
	if _, ok := adj[rootID]; !ok {
		rootID = nodes[0]
	}

	depth[rootID] = 0
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		lvl := depth[id]
		for len(layers) <= lvl {
			layers = append(layers, nil)
		}
		layers[lvl] = append(layers[lvl], id)

		for _, next := range adj[id] {
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = lvl + 1
			queue = append(queue, next)
		}
	}
	return depth, layers
}

// Compute returns a position for every distinct node ID in templates.
//
// Reachable nodes sit at x = level*HorizontalSpacing and are centered around
// y = 0 within their level. Nodes the BFS cannot reach are stacked in one
// column after the last level, in template order.
func Compute(templates []schema.Template, rootID string, opts Options) map[string]Position {
	opts = opts.normalized()
	nodes, _ := Adjacency(templates)
	depth, layers := Levels(templates, rootID)

	positions := make(map[string]Position, len(nodes))
	maxX := 0.0
	for lvl, layer := range layers {
		x := float64(lvl) * opts.HorizontalSpacing
		if x > maxX {
			maxX = x
		}
		n := float64(len(layer))
		start := -((n - 1) * opts.VerticalSpacing) / 2
		for i, id := range layer {
			positions[id] = Position{X: x, Y: start + float64(i)*opts.VerticalSpacing}
		}
	}

	k := 0
	for _, id := range nodes {
		if _, ok := depth[id]; ok {
			continue
		}
		positions[id] = Position{X: maxX + opts.HorizontalSpacing, Y: float64(k) * opts.VerticalSpacing}
		k++
	}
	return positions
}

// Disconnected returns the node IDs the BFS from rootID does not reach, in
// template order.
func Disconnected(templates []schema.Template, rootID string) []string {
	nodes, _ := Adjacency(templates)
	depth, _ := Levels(templates, rootID)
	var out []string
	for _, id := range nodes {
		if _, ok := depth[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
