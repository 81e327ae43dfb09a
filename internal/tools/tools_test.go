package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/schemagraph/internal/cache"
	"github.com/HendryAvila/schemagraph/internal/engine"
	"github.com/HendryAvila/schemagraph/internal/graph"
	"github.com/HendryAvila/schemagraph/internal/mapping"
	"github.com/HendryAvila/schemagraph/internal/orkg"
	"github.com/HendryAvila/schemagraph/internal/schema"
	"github.com/HendryAvila/schemagraph/internal/templates"
)

// --- Test helpers ---

// newTestExplorer creates an engine over a three-template fixture:
// R1 (C1) links to C2 and C3, R2 (C2) links back to C1.
func newTestExplorer(t *testing.T) *engine.Explorer {
	t.Helper()
	lookup := orkg.NewStaticLookup(
		schema.Template{ID: "R1", Label: "Contribution", TargetClass: &schema.Ref{ID: "C1"}, Properties: []schema.Property{
			{ID: "p1", Order: 0, MaxCount: schema.Count(1), Path: schema.Ref{ID: "P1", Label: "data collection"}, Class: &schema.Ref{ID: "C2", Label: "Data Collection"}},
			{ID: "p2", Order: 1, Path: schema.Ref{ID: "P2", Label: "data analysis"}, Class: &schema.Ref{ID: "C3", Label: "Data Analysis"}},
			{ID: "p4", Order: 2, Path: schema.Ref{ID: "P4", Label: "note"}, Datatype: &schema.Ref{ID: "String"}},
		}},
		schema.Template{ID: "R2", Label: "Data Collection", TargetClass: &schema.Ref{ID: "C2"}, Properties: []schema.Property{
			{ID: "p3", Path: schema.Ref{ID: "P3", Label: "method"}, Class: &schema.Ref{ID: "C1", Label: "Contribution"}},
		}},
		schema.Template{ID: "R3", Label: "Data Analysis", TargetClass: &schema.Ref{ID: "C3"}},
	)
	opts := engine.DefaultOptions()
	opts.Loader.Concurrency = 1
	return engine.New(lookup, opts)
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func mustHandle(t *testing.T, handle func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) string {
	t.Helper()
	result, err := handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected tool error: %s", getResultText(result))
	}
	return getResultText(result)
}

// --- Argument validation ---

func TestTemplateIDValidation(t *testing.T) {
	tool := NewGraphTool(newTestExplorer(t))

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing", map[string]interface{}{}, "required"},
		{"blank", map[string]interface{}{"template_id": "   "}, "required"},
		{"class id", map[string]interface{}{"template_id": "C1"}, "resource ID"},
		{"unknown", map[string]interface{}{"template_id": "R404"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Handle(context.Background(), makeReq(tt.args))
			if err != nil {
				t.Fatalf("Handle returned error: %v", err)
			}
			if !isErrorResult(result) {
				t.Fatal("expected tool error")
			}
			if text := getResultText(result); !strings.Contains(text, tt.want) {
				t.Errorf("error %q should contain %q", text, tt.want)
			}
		})
	}
}

func TestParseDetailLevel(t *testing.T) {
	for in, want := range map[string]string{
		"":         DetailStandard,
		"summary":  DetailSummary,
		"full":     DetailFull,
		"verbose":  DetailStandard,
		"standard": DetailStandard,
	} {
		if got := ParseDetailLevel(in); got != want {
			t.Errorf("ParseDetailLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- ExploreTool ---

func TestExploreTool_Definition(t *testing.T) {
	def := NewExploreTool(newTestExplorer(t)).Definition()
	if def.Name != "schema_explore" {
		t.Errorf("tool name = %q, want schema_explore", def.Name)
	}
	if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != "template_id" {
		t.Errorf("required = %v, want [template_id]", def.InputSchema.Required)
	}
}

func TestExploreTool_Standard(t *testing.T) {
	tool := NewExploreTool(newTestExplorer(t))
	text := mustHandle(t, tool.Handle, map[string]interface{}{"template_id": "R1"})

	for _, want := range []string{
		"Schema: Contribution (R1)",
		"**Target class**: `C1`",
		"**Templates**: 3 | **Edges**: 3 | **Levels**: 2",
		"## Level 0",
		"## Level 1",
		"data collection → Data Collection (`C2`)",
		"method → Contribution (`C1`)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output should contain %q\n%s", want, text)
		}
	}
	if strings.Contains(text, "note") {
		t.Error("standard output should only list linked properties")
	}
}

func TestExploreTool_Summary(t *testing.T) {
	tool := NewExploreTool(newTestExplorer(t))
	text := mustHandle(t, tool.Handle, map[string]interface{}{"template_id": "R1", "detail_level": "summary"})

	if !strings.Contains(text, "Level 1: 2 template(s)") {
		t.Errorf("summary should count level 1 templates:\n%s", text)
	}
	if strings.Contains(text, "## Level") {
		t.Error("summary should not list templates")
	}
	if !strings.Contains(text, "detail_level") {
		t.Error("summary should end with the detail footer")
	}
}

func TestExploreTool_Full(t *testing.T) {
	tool := NewExploreTool(newTestExplorer(t))
	text := mustHandle(t, tool.Handle, map[string]interface{}{"template_id": "R1", "detail_level": "full"})

	for _, want := range []string{
		"data collection (`P1`) [0, 1] → Data Collection (`C2`)",
		"note (`P4`) [0, *] literal `String`",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output should contain %q\n%s", want, text)
		}
	}
}

// --- GraphTool / MappingTool ---

func TestGraphTool_ReturnsJSON(t *testing.T) {
	tool := NewGraphTool(newTestExplorer(t))
	text := mustHandle(t, tool.Handle, map[string]interface{}{"template_id": "R1"})

	var g graph.Graph
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		t.Fatalf("output is not a graph document: %v", err)
	}
	if g.RootID != "C1" {
		t.Errorf("root = %q, want C1", g.RootID)
	}
	if len(g.Nodes) != 3 || len(g.Edges) != 3 {
		t.Errorf("nodes/edges = %d/%d, want 3/3", len(g.Nodes), len(g.Edges))
	}
	if !strings.Contains(text, `"sourceHandle": "C1::prop::p1"`) {
		t.Error("edges should carry property handles")
	}
}

func TestMappingTool_ReturnsJSON(t *testing.T) {
	tool := NewMappingTool(newTestExplorer(t))
	text := mustHandle(t, tool.Handle, map[string]interface{}{"template_id": "R1"})

	var m mapping.Mapping
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		t.Fatalf("output is not a mapping: %v", err)
	}
	if got := m["P1"].SubtemplateID; got != "R2" {
		t.Errorf("P1 subtemplate = %q, want R2", got)
	}
	if got := m["P1"].Cardinality; got != schema.OneToOne {
		t.Errorf("P1 cardinality = %q, want %q", got, schema.OneToOne)
	}
}

// --- SPARQLPromptTool ---

func TestSPARQLPromptTool_EmbedsQuestion(t *testing.T) {
	renderer, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	tool := NewSPARQLPromptTool(newTestExplorer(t), renderer)

	text := mustHandle(t, tool.Handle, map[string]interface{}{
		"template_id": "R1",
		"question":    "Which methods are used most?",
	})
	for _, want := range []string{"SPARQL Query Generator", `"Contribution" template (ID: R1)`, "Which methods are used most?", "orkgp:P1"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

type failingRenderer struct{}

func (failingRenderer) Prompt(schema.Template, mapping.Mapping, string) (string, error) {
	return "", errors.New("boom")
}

func TestSPARQLPromptTool_RenderFailure(t *testing.T) {
	tool := NewSPARQLPromptTool(newTestExplorer(t), failingRenderer{})
	_, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"template_id": "R1"}))
	if err == nil {
		t.Fatal("expected render failure to be returned as error")
	}
}

// --- CacheTool ---

type fakeCache struct {
	stats   cache.Stats
	cleared bool
	pruned  bool
}

func (f *fakeCache) Stats(context.Context) (*cache.Stats, error) { return &f.stats, nil }

func (f *fakeCache) Clear(context.Context) (int64, error) {
	f.cleared = true
	return 7, nil
}

func (f *fakeCache) Prune(context.Context) (int64, error) {
	f.pruned = true
	return 2, nil
}

func TestCacheTool_Actions(t *testing.T) {
	fc := &fakeCache{stats: cache.Stats{Templates: 4, ClassEntries: 3, Path: "/tmp/cache.db", TTLSeconds: 3600}}
	tool := NewCacheTool(fc)

	text := mustHandle(t, tool.Handle, map[string]interface{}{})
	if !strings.Contains(text, "**Templates**: 4") || !strings.Contains(text, "**TTL**: 1h0m0s") {
		t.Errorf("stats output unexpected:\n%s", text)
	}

	text = mustHandle(t, tool.Handle, map[string]interface{}{"action": "clear"})
	if !fc.cleared || !strings.Contains(text, "7 entries") {
		t.Errorf("clear not applied: %s", text)
	}

	text = mustHandle(t, tool.Handle, map[string]interface{}{"action": "prune"})
	if !fc.pruned || !strings.Contains(text, "2 expired") {
		t.Errorf("prune not applied: %s", text)
	}

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"action": "drop"}))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("unknown action should be a tool error")
	}
}
