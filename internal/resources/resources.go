// Package resources implements MCP resource handlers for explored schemas.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (schemagraph://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/schemagraph/internal/engine"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

const (
	uriPrefix        = "schemagraph://templates/"
	mappingSuffix    = "/mapping"
	graphSuffix      = "/graph"
	jsonMIMEType     = "application/json"
	MappingURIFormat = uriPrefix + "%s" + mappingSuffix
	GraphURIFormat   = uriPrefix + "%s" + graphSuffix
)

// Explorer runs one exploration from a root template.
type Explorer interface {
	Explore(ctx context.Context, rootID string) (*engine.Result, error)
}

// Handler serves exploration results as resources.
type Handler struct {
	explorer Explorer
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(explorer Explorer) *Handler {
	return &Handler{explorer: explorer}
}

// MappingTemplate returns the resource template for predicate mappings.
func (h *Handler) MappingTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		uriPrefix+"{id}"+mappingSuffix,
		"Predicate Mapping",
		mcp.WithTemplateDescription("Predicate mapping of an ORKG template, keyed by predicate ID"),
		mcp.WithTemplateMIMEType(jsonMIMEType),
	)
}

// GraphTemplate returns the resource template for schema graphs.
func (h *Handler) GraphTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		uriPrefix+"{id}"+graphSuffix,
		"Schema Graph",
		mcp.WithTemplateDescription("Positioned node/edge graph of an ORKG template and its subtemplates"),
		mcp.WithTemplateMIMEType(jsonMIMEType),
	)
}

// HandleMapping returns the predicate mapping named by the request URI.
func (h *Handler) HandleMapping(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return h.read(ctx, req.Params.URI, mappingSuffix, func(res *engine.Result) any { return res.Mapping })
}

// HandleGraph returns the schema graph named by the request URI.
func (h *Handler) HandleGraph(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return h.read(ctx, req.Params.URI, graphSuffix, func(res *engine.Result) any { return res.Graph })
}

func (h *Handler) read(ctx context.Context, uri, suffix string, project func(*engine.Result) any) ([]mcp.ResourceContents, error) {
	id, err := templateID(uri, suffix)
	if err != nil {
		return nil, err
	}

	res, err := h.explorer.Explore(ctx, id)
	if err != nil {
		return errorResource(uri, err.Error()), nil
	}

	data, err := json.MarshalIndent(project(res), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     string(data),
		},
	}, nil
}

// templateID extracts the template ID from schemagraph://templates/{id}<suffix>.
func templateID(uri, suffix string) (string, error) {
	rest, ok := strings.CutPrefix(uri, uriPrefix)
	if !ok {
		return "", fmt.Errorf("unsupported resource URI %q", uri)
	}
	id, ok := strings.CutSuffix(rest, suffix)
	if !ok || !schema.IsInstanceID(id) || strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid template ID in resource URI %q", uri)
	}
	return id, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
