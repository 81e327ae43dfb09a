// Package tools implements MCP tool handlers for schema exploration.
//
// Each tool receives its dependencies via its struct and returns a handler
// compatible with mcp-go's CallToolRequest signature. Tools depend on the
// small interfaces declared here, not on the engine or cache concretions.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/schemagraph/internal/cache"
	"github.com/HendryAvila/schemagraph/internal/engine"
	"github.com/HendryAvila/schemagraph/internal/mapping"
	"github.com/HendryAvila/schemagraph/internal/orkg"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

// Explorer runs one exploration from a root template.
type Explorer interface {
	Explore(ctx context.Context, rootID string) (*engine.Result, error)
}

// PromptRenderer renders the SPARQL generator prompt for a template.
type PromptRenderer interface {
	Prompt(tpl schema.Template, m mapping.Mapping, question string) (string, error)
}

// CacheAdmin is the subset of the cache store the cache tool manages.
type CacheAdmin interface {
	Stats(ctx context.Context) (*cache.Stats, error)
	Clear(ctx context.Context) (int64, error)
	Prune(ctx context.Context) (int64, error)
}

var (
	_ Explorer   = (*engine.Explorer)(nil)
	_ CacheAdmin = (*cache.Store)(nil)
)

// Detail level constants for schema_explore.
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// DetailLevelValues returns the enum values for tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to standard.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// summaryFooter is appended to summary responses.
const summaryFooter = "\n---\n💡 Use detail_level: standard or full for properties and edges."

const templateIDDescription = "ORKG template (resource) ID to start from, e.g. R186491"

// templateIDArg reads and validates the required template_id argument.
func templateIDArg(req mcp.CallToolRequest) (string, error) {
	id := strings.TrimSpace(req.GetString("template_id", ""))
	if id == "" {
		return "", errors.New("'template_id' is required")
	}
	if !schema.IsInstanceID(id) {
		return "", fmt.Errorf("'template_id' must be a resource ID like R186491, got %q", id)
	}
	return id, nil
}

// exploreFailure turns an exploration error into a tool error result.
func exploreFailure(id string, err error) *mcp.CallToolResult {
	if errors.Is(err, orkg.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("template %s was not found", id))
	}
	return mcp.NewToolResultError(fmt.Sprintf("exploring template %s: %v", id, err))
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
