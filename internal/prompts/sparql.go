// Package prompts implements MCP prompt handlers for schema exploration.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence of tool calls.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// SPARQLQueryPrompt handles the sparql-query MCP prompt.
// It walks the AI from a template ID and a research question to a query.
type SPARQLQueryPrompt struct{}

// NewSPARQLQueryPrompt creates a SPARQLQueryPrompt.
func NewSPARQLQueryPrompt() *SPARQLQueryPrompt {
	return &SPARQLQueryPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *SPARQLQueryPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("sparql-query",
		mcp.WithPromptDescription(
			"Write a SPARQL query over ORKG data for a research question, grounded in the "+
				"predicates of an ORKG template and its subtemplates.",
		),
		mcp.WithArgument("template_id",
			mcp.RequiredArgument(),
			mcp.ArgumentDescription("ORKG template ID, e.g. R186491"),
		),
		mcp.WithArgument("question",
			mcp.ArgumentDescription("The research question the query should answer"),
		),
	)
}

// Handle processes the sparql-query prompt request.
func (p *SPARQLQueryPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	templateID := strings.TrimSpace(req.Params.Arguments["template_id"])
	if templateID == "" {
		return nil, fmt.Errorf("template_id is required")
	}
	question := strings.TrimSpace(req.Params.Arguments["question"])
	if question == "" {
		question = "(ask me for the research question before writing the query)"
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("SPARQL query for template %s", templateID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I need a SPARQL query over the Open Research Knowledge Graph.\n\n"+
						"**Template**: %s\n**Research question**: %s\n\n"+
						"Steps:\n"+
						"1. Call `schema_sparql_prompt` with template_id=%q and the question. "+
						"Treat its output as your instructions and schema reference.\n"+
						"2. If a predicate's meaning is unclear, call `schema_explore` with detail_level=full.\n"+
						"3. Write one query using only predicates listed in the schema table, "+
						"following the variable chains shown under Usage.\n"+
						"4. Explain briefly which template levels the query traverses.",
					templateID, question, templateID,
				)),
			},
		},
	}, nil
}

// ExplorePrompt handles the explore-schema MCP prompt.
type ExplorePrompt struct{}

// NewExplorePrompt creates an ExplorePrompt.
func NewExplorePrompt() *ExplorePrompt {
	return &ExplorePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ExplorePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("explore-schema",
		mcp.WithPromptDescription("Explain the structure of an ORKG template and its subtemplates."),
		mcp.WithArgument("template_id",
			mcp.RequiredArgument(),
			mcp.ArgumentDescription("ORKG template ID, e.g. R186491"),
		),
	)
}

// Handle processes the explore-schema prompt request.
func (p *ExplorePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	templateID := strings.TrimSpace(req.Params.Arguments["template_id"])
	if templateID == "" {
		return nil, fmt.Errorf("template_id is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Explore template %s", templateID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Explain the ORKG template %s to me.\n\n"+
						"Call `schema_explore` with template_id=%q. Describe the root template first, "+
						"then each level of subtemplates and the properties linking them. "+
						"Point out disconnected templates and properties that are literals.",
					templateID, templateID,
				)),
			},
		},
	}, nil
}
