package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// MappingTool handles the schema_mapping MCP tool.
// It returns the predicate mapping keyed by predicate ID as JSON.
type MappingTool struct {
	explorer Explorer
}

// NewMappingTool creates a MappingTool.
func NewMappingTool(explorer Explorer) *MappingTool {
	return &MappingTool{explorer: explorer}
}

// Definition returns the MCP tool definition for registration.
func (t *MappingTool) Definition() mcp.Tool {
	return mcp.NewTool("schema_mapping",
		mcp.WithDescription(
			"Export the predicate mapping of an ORKG template as JSON. Keys are predicate "+
				"IDs; each entry carries label, cardinality and description, and object "+
				"properties embed the subtemplate's own properties.",
		),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description(templateIDDescription),
		),
	)
}

// Handle processes the schema_mapping tool call.
func (t *MappingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := templateIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.explorer.Explore(ctx, id)
	if err != nil {
		return exploreFailure(id, err), nil
	}
	return jsonResult(res.Mapping)
}
