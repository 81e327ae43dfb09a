package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/schemagraph/internal/graph"
	"github.com/HendryAvila/schemagraph/internal/layout"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

// ExploreTool handles the schema_explore MCP tool.
// It loads a template flow and summarizes the resulting graph level by level.
type ExploreTool struct {
	explorer Explorer
}

// NewExploreTool creates an ExploreTool.
func NewExploreTool(explorer Explorer) *ExploreTool {
	return &ExploreTool{explorer: explorer}
}

// Definition returns the MCP tool definition for registration.
func (t *ExploreTool) Definition() mcp.Tool {
	return mcp.NewTool("schema_explore",
		mcp.WithDescription(
			"Explore an ORKG template schema starting from a root template. "+
				"Follows every property whose class is targeted by another template, "+
				"recursively, and reports the templates grouped by graph level with "+
				"the edges between them. Templates that fail to load are skipped.",
		),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description(templateIDDescription),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary: counts per level only. standard (default): templates and their edges. full: every property with cardinality and type."),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the schema_explore tool call.
func (t *ExploreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := templateIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail := ParseDetailLevel(req.GetString("detail_level", DetailStandard))

	res, err := t.explorer.Explore(ctx, id)
	if err != nil {
		return exploreFailure(id, err), nil
	}
	g := res.Graph
	_, layers := layout.Levels(res.Templates, g.RootID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# 🗺️ Schema: %s (%s)\n\n", res.RootLabel, res.RootID)
	if res.TargetClassID != "" {
		fmt.Fprintf(&sb, "**Target class**: `%s`\n", res.TargetClassID)
	}
	fmt.Fprintf(&sb, "**Templates**: %d | **Edges**: %d | **Levels**: %d | **Predicates**: %d\n\n",
		g.Stats.TotalNodes, g.Stats.TotalEdges, len(layers), len(res.Mapping))

	if detail == DetailSummary {
		for lvl, layer := range layers {
			fmt.Fprintf(&sb, "- Level %d: %d template(s)\n", lvl, len(layer))
		}
		if n := len(g.Stats.Disconnected); n > 0 {
			fmt.Fprintf(&sb, "- Disconnected: %d template(s)\n", n)
		}
		sb.WriteString(summaryFooter)
		return mcp.NewToolResultText(sb.String()), nil
	}

	for lvl, layer := range layers {
		fmt.Fprintf(&sb, "## Level %d\n\n", lvl)
		for _, nodeID := range layer {
			writeNode(&sb, g, nodeID, detail)
		}
		sb.WriteString("\n")
	}

	if len(g.Stats.Disconnected) > 0 {
		sb.WriteString("## Disconnected\n\n")
		sb.WriteString("Loaded but not reachable from the root node:\n\n")
		for _, nodeID := range g.Stats.Disconnected {
			writeNode(&sb, g, nodeID, detail)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func writeNode(sb *strings.Builder, g *graph.Graph, nodeID, detail string) {
	n := g.Node(nodeID)
	if n == nil {
		return
	}
	fmt.Fprintf(sb, "- **%s** (%s) node `%s`, %d properties\n",
		n.Data.Title, n.Data.TemplateID, n.ID, len(n.Data.Properties))

	targets := make(map[string]string)
	for _, e := range g.Outgoing(n.ID) {
		targets[e.SourceHandle] = e.Target
	}

	for _, p := range n.Data.Properties {
		target, linked := targets[graph.PropertyHandle(n.ID, p.ID)]
		switch {
		case detail == DetailFull:
			fmt.Fprintf(sb, "  - %s (`%s`) %s %s\n", p.Path.Label, p.Path.ID,
				schema.FormatCardinality(p.MinCount, p.MaxCount), propertyType(p, target, linked, g))
		case linked:
			fmt.Fprintf(sb, "  - %s → %s\n", p.Path.Label, nodeTitle(g, target))
		}
	}
}

func propertyType(p schema.Property, target string, linked bool, g *graph.Graph) string {
	switch {
	case linked:
		return "→ " + nodeTitle(g, target)
	case p.Class != nil:
		return fmt.Sprintf("class `%s`", p.Class.ID)
	case p.Datatype != nil:
		return fmt.Sprintf("literal `%s`", p.Datatype.ID)
	default:
		return "untyped"
	}
}

func nodeTitle(g *graph.Graph, nodeID string) string {
	if n := g.Node(nodeID); n != nil && n.Data.Title != "" {
		return fmt.Sprintf("%s (`%s`)", n.Data.Title, nodeID)
	}
	return "`" + nodeID + "`"
}
