// Package graph projects a template set into the node/edge document a
// diagram front end renders: one node per distinct node ID with its sorted
// properties, one edge per object property whose class resolves to a node.
package graph

import (
	"github.com/HendryAvila/schemagraph/internal/layout"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

// NodeType is the renderer type attached to every node.
const NodeType = "templateNode"

// Node is a positioned template.
type Node struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Position layout.Position `json:"position"`
	Data     NodeData        `json:"data"`
}

// NodeData is the payload the renderer draws.
type NodeData struct {
	Title      string            `json:"title"`
	NodeID     string            `json:"nodeId"`
	TemplateID string            `json:"templateId"`
	Properties []schema.Property `json:"properties"`
}

// Edge links one property row of the source node to the target node.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle"`
	Target       string `json:"target"`
}

// Stats summarizes the projected graph.
type Stats struct {
	TotalNodes   int      `json:"total_nodes"`
	TotalEdges   int      `json:"total_edges"`
	MaxLevel     int      `json:"max_level"`
	Disconnected []string `json:"disconnected,omitempty"`
}

// Graph is the full document.
type Graph struct {
	RootID string `json:"root_id"`
	Nodes  []Node `json:"nodes"`
	Edges  []Edge `json:"edges"`
	Stats  Stats  `json:"stats"`
}

// PropertyHandle is the handle ID of a property row on a node.
func PropertyHandle(nodeID, propertyID string) string {
	return nodeID + "::prop::" + propertyID
}

// EdgeID derives an edge ID from its source handle and target node.
func EdgeID(sourceHandle, targetNodeID string) string {
	return sourceHandle + "=>" + targetNodeID
}

// Build projects templates into a Graph laid out from rootID (a node ID; an
// empty or unknown one falls back to the first template).
func Build(templates []schema.Template, rootID string, opts layout.Options) *Graph {
	positions := layout.Compute(templates, rootID, opts)
	depth, layers := layout.Levels(templates, rootID)
	byClass := schema.IndexByTargetClass(templates)

	g := &Graph{Nodes: []Node{}, Edges: []Edge{}}
	if len(layers) > 0 {
		g.RootID = layers[0][0]
	}

	seenNodes := make(map[string]struct{}, len(templates))
	seenEdges := make(map[string]struct{})
	for _, t := range templates {
		src := t.NodeID()
		props := t.SortedProperties()

		// A later template sharing a node ID owns no property rows, so its
		// properties have no handles to anchor edges on.
		if _, dup := seenNodes[src]; dup {
			continue
		}
		seenNodes[src] = struct{}{}
		g.Nodes = append(g.Nodes, Node{
			ID:       src,
			Type:     NodeType,
			Position: positions[src],
			Data: NodeData{
				Title:      t.Label,
				NodeID:     src,
				TemplateID: t.ID,
				Properties: props,
			},
		})

		for _, p := range props {
			target, ok := byClass[p.ClassID()]
			if !ok {
				continue
			}
			handle := PropertyHandle(src, p.ID)
			id := EdgeID(handle, target.NodeID())
			if _, dup := seenEdges[id]; dup {
				continue
			}
			seenEdges[id] = struct{}{}
			g.Edges = append(g.Edges, Edge{
				ID:           id,
				Source:       src,
				SourceHandle: handle,
				Target:       target.NodeID(),
			})
		}
	}

	for _, lvl := range depth {
		if lvl > g.Stats.MaxLevel {
			g.Stats.MaxLevel = lvl
		}
	}
	g.Stats.TotalNodes = len(g.Nodes)
	g.Stats.TotalEdges = len(g.Edges)
	g.Stats.Disconnected = layout.Disconnected(templates, rootID)
	return g
}

// Node returns the node with id, or nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Outgoing returns the edges leaving node id, in build order.
func (g *Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}
