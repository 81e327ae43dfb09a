package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// GraphTool handles the schema_graph MCP tool.
// It returns the positioned node/edge document for a root template as JSON.
type GraphTool struct {
	explorer Explorer
}

// NewGraphTool creates a GraphTool.
func NewGraphTool(explorer Explorer) *GraphTool {
	return &GraphTool{explorer: explorer}
}

// Definition returns the MCP tool definition for registration.
func (t *GraphTool) Definition() mcp.Tool {
	return mcp.NewTool("schema_graph",
		mcp.WithDescription(
			"Build the visual schema graph for an ORKG template as JSON: one node per "+
				"target class with its properties and a level-based position, and one "+
				"edge per property that links to another loaded template.",
		),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description(templateIDDescription),
		),
	)
}

// Handle processes the schema_graph tool call.
func (t *GraphTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := templateIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.explorer.Explore(ctx, id)
	if err != nil {
		return exploreFailure(id, err), nil
	}
	return jsonResult(res.Graph)
}
