// Package httpapi serves explorations over HTTP for diagram front ends and
// scripts: the graph, the template flow, the predicate mapping and the
// SPARQL prompt of a root template, plus health and Prometheus endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HendryAvila/schemagraph/internal/engine"
	"github.com/HendryAvila/schemagraph/internal/mapping"
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

// Options configures the HTTP handler.
type Options struct {
	Explorer   Explorer
	Renderer   PromptRenderer
	Logger     *slog.Logger
	Gatherer   prometheus.Gatherer // nil disables /metrics
	CORSOrigin string              // empty disables CORS headers
	Timeout    time.Duration       // per request; 0 means none
}

// Handler implements the template endpoints.
type Handler struct {
	explorer Explorer
	renderer PromptRenderer
	logger   *slog.Logger
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{explorer: opts.Explorer, renderer: opts.Renderer, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(opts.CORSOrigin))
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/templates/{id}", func(r chi.Router) {
		r.Get("/", h.HandleExplore)
		r.Get("/graph", h.HandleGraph)
		r.Get("/flow", h.HandleFlow)
		r.Get("/mapping", h.HandleMapping)
		r.Get("/prompt", h.HandlePrompt)
	})
	return r
}

// HandleExplore returns the whole exploration result.
// GET /v1/templates/{id}
func (h *Handler) HandleExplore(w http.ResponseWriter, r *http.Request) {
	res, ok := h.explore(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGraph returns the positioned node/edge graph.
// GET /v1/templates/{id}/graph
func (h *Handler) HandleGraph(w http.ResponseWriter, r *http.Request) {
	res, ok := h.explore(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Graph)
}

// HandleFlow returns the nested template flow tree.
// GET /v1/templates/{id}/flow
func (h *Handler) HandleFlow(w http.ResponseWriter, r *http.Request) {
	res, ok := h.explore(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Root)
}

// HandleMapping returns the predicate mapping. With ?download=1 the body is
// sent as an attachment named <id>-predicates-mapping.json.
// GET /v1/templates/{id}/mapping
func (h *Handler) HandleMapping(w http.ResponseWriter, r *http.Request) {
	res, ok := h.explore(w, r)
	if !ok {
		return
	}
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, MappingFilename(res.RootID)))
	}
	writeJSON(w, http.StatusOK, res.Mapping)
}

// HandlePrompt returns the SPARQL generator prompt as markdown.
// GET /v1/templates/{id}/prompt?question=...
func (h *Handler) HandlePrompt(w http.ResponseWriter, r *http.Request) {
	res, ok := h.explore(w, r)
	if !ok {
		return
	}
	question := strings.TrimSpace(r.URL.Query().Get("question"))
	prompt, err := h.renderer.Prompt(res.RootTemplate(), res.Mapping, question)
	if err != nil {
		h.logger.Error("prompt render failed", "template_id", res.RootID, "error", err)
		writeError(w, http.StatusInternalServerError, CodeRenderFailure, "rendering prompt failed")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(prompt))
}

// MappingFilename is the download name of a template's mapping.
func MappingFilename(templateID string) string {
	return templateID + "-predicates-mapping.json"
}

func (h *Handler) explore(w http.ResponseWriter, r *http.Request) (*engine.Result, bool) {
	id := chi.URLParam(r, "id")
	if !schema.IsInstanceID(id) {
		writeError(w, http.StatusBadRequest, CodeInvalidID, "invalid template ID: "+id)
		return nil, false
	}
	res, err := h.explorer.Explore(r.Context(), id)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, false
		}
		exploreErrorToHTTP(w, r, h.logger, err)
		return nil, false
	}
	return res, true
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}
