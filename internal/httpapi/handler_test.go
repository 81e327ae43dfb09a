package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/schemagraph/internal/engine"
	"github.com/HendryAvila/schemagraph/internal/graph"
	"github.com/HendryAvila/schemagraph/internal/mapping"
	"github.com/HendryAvila/schemagraph/internal/metrics"
	"github.com/HendryAvila/schemagraph/internal/orkg"
	"github.com/HendryAvila/schemagraph/internal/schema"
	"github.com/HendryAvila/schemagraph/internal/templates"
)

func newTestServer(t *testing.T, lookup orkg.Lookup) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	opts := engine.DefaultOptions()
	opts.Metrics = metrics.New(reg)
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	renderer, err := templates.NewRenderer()
	require.NoError(t, err)

	ts := httptest.NewServer(NewRouter(Options{
		Explorer:   engine.New(lookup, opts),
		Renderer:   renderer,
		Logger:     opts.Logger,
		Gatherer:   reg,
		CORSOrigin: "*",
	}))
	t.Cleanup(ts.Close)
	return ts
}

func fixtureLookup() *orkg.StaticLookup {
	return orkg.NewStaticLookup(
		schema.Template{ID: "R1", Label: "Root", TargetClass: &schema.Ref{ID: "C1"}, Properties: []schema.Property{
			{ID: "p1", Path: schema.Ref{ID: "P1", Label: "part"}, Class: &schema.Ref{ID: "C2", Label: "Part"}},
		}},
		schema.Template{ID: "R2", Label: "Part", TargetClass: &schema.Ref{ID: "C2"}},
	)
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url) //nolint:noctx // test helper
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, fixtureLookup())
	resp, body := get(t, ts.URL+"/healthz")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestGraphEndpoint(t *testing.T) {
	ts := newTestServer(t, fixtureLookup())
	resp, body := get(t, ts.URL+"/v1/templates/R1/graph")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var g graph.Graph
	require.NoError(t, json.Unmarshal(body, &g))
	assert.Equal(t, "C1", g.RootID)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "C1::prop::p1=>C2", g.Edges[0].ID)
}

func TestFlowEndpoint(t *testing.T) {
	ts := newTestServer(t, fixtureLookup())
	resp, body := get(t, ts.URL+"/v1/templates/R1/flow")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var flow struct {
		ID        string `json:"id"`
		Neighbors []struct {
			ID string `json:"id"`
		} `json:"neighbors"`
	}
	require.NoError(t, json.Unmarshal(body, &flow))
	assert.Equal(t, "R1", flow.ID)
	require.Len(t, flow.Neighbors, 1)
	assert.Equal(t, "R2", flow.Neighbors[0].ID)
}

func TestExploreEndpoint(t *testing.T) {
	ts := newTestServer(t, fixtureLookup())
	resp, body := get(t, ts.URL+"/v1/templates/R1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res struct {
		RootID    string            `json:"root_id"`
		Templates []schema.Template `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "R1", res.RootID)
	assert.Len(t, res.Templates, 2)
}

func TestMappingEndpoint_Download(t *testing.T) {
	ts := newTestServer(t, fixtureLookup())

	resp, body := get(t, ts.URL+"/v1/templates/R1/mapping")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Content-Disposition"))

	var m mapping.Mapping
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "R2", m["P1"].SubtemplateID)

	resp, _ = get(t, ts.URL+"/v1/templates/R1/mapping?download=1")
	assert.Equal(t, `attachment; filename="R1-predicates-mapping.json"`, resp.Header.Get("Content-Disposition"))
}

func TestPromptEndpoint(t *testing.T) {
	ts := newTestServer(t, fixtureLookup())
	resp, body := get(t, ts.URL+"/v1/templates/R1/prompt?question=Which+parts%3F")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	assert.Contains(t, string(body), "Which parts?")
	assert.Contains(t, string(body), "orkgp:P1")
}

func TestErrors(t *testing.T) {
	lookup := fixtureLookup()
	lookup.FailTemplate("R9", &orkg.TransportError{Op: "fetch_template", StatusCode: http.StatusBadGateway})
	ts := newTestServer(t, lookup)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"invalid id", "/v1/templates/C1/graph", http.StatusBadRequest, CodeInvalidID},
		{"not found", "/v1/templates/R404/graph", http.StatusNotFound, CodeNotFound},
		{"upstream", "/v1/templates/R9/mapping", http.StatusBadGateway, CodeUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)

			var e map[string]string
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, tt.code, e["code"])
			assert.NotEmpty(t, e["error"])
		})
	}
}

func TestPromptEndpoint_RenderFailure(t *testing.T) {
	opts := engine.DefaultOptions()
	ts := httptest.NewServer(NewRouter(Options{
		Explorer: engine.New(fixtureLookup(), opts),
		Renderer: failingRenderer{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}))
	defer ts.Close()

	resp, _ := get(t, ts.URL+"/v1/templates/R1/prompt")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

type failingRenderer struct{}

func (failingRenderer) Prompt(schema.Template, mapping.Mapping, string) (string, error) {
	return "", errors.New("boom")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, fixtureLookup())
	get(t, ts.URL+"/v1/templates/R1/graph")

	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "schemagraph_")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, fixtureLookup())
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/templates/R1/graph", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "GET")
}

func TestRequestID_Propagates(t *testing.T) {
	ts := newTestServer(t, fixtureLookup())
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}
