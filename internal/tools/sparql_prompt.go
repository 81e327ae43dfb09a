package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// SPARQLPromptTool handles the schema_sparql_prompt MCP tool.
// It renders a SPARQL generation prompt grounded in the template's mapping.
type SPARQLPromptTool struct {
	explorer Explorer
	renderer PromptRenderer
}

// NewSPARQLPromptTool creates a SPARQLPromptTool.
func NewSPARQLPromptTool(explorer Explorer, renderer PromptRenderer) *SPARQLPromptTool {
	return &SPARQLPromptTool{explorer: explorer, renderer: renderer}
}

// Definition returns the MCP tool definition for registration.
func (t *SPARQLPromptTool) Definition() mcp.Tool {
	return mcp.NewTool("schema_sparql_prompt",
		mcp.WithDescription(
			"Generate a prompt for writing SPARQL queries against ORKG data described by a "+
				"template. The prompt lists every predicate with its variable chain and the "+
				"template hierarchy. Pass the research question to embed it.",
		),
		mcp.WithString("template_id",
			mcp.Required(),
			mcp.Description(templateIDDescription),
		),
		mcp.WithString("question",
			mcp.Description("Research question the query should answer. Optional; a placeholder is used when empty."),
		),
	)
}

// Handle processes the schema_sparql_prompt tool call.
func (t *SPARQLPromptTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := templateIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question := strings.TrimSpace(req.GetString("question", ""))

	res, err := t.explorer.Explore(ctx, id)
	if err != nil {
		return exploreFailure(id, err), nil
	}

	prompt, err := t.renderer.Prompt(res.RootTemplate(), res.Mapping, question)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt for %s: %w", id, err)
	}
	return mcp.NewToolResultText(prompt), nil
}
