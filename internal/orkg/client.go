package orkg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/HendryAvila/schemagraph/internal/metrics"
	"github.com/HendryAvila/schemagraph/internal/retry"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

const (
	// DefaultBaseURL is the public ORKG REST API.
	DefaultBaseURL = "https://orkg.org/api/"

	templateMediaType  = "application/vnd.orkg.template.v1+json"
	statementMediaType = "application/json"

	// targetClassPredicate links a template (node shape) to the class it describes.
	targetClassPredicate = "sh:targetClass"
	nodeShapeClass       = "NodeShape"
	statementPageSize    = "9999"
)

// ClientConfig configures the HTTP lookup client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration // per HTTP request
	RateLimit float64       // requests per second; 0 disables limiting
	Burst     int
	Retry     retry.Config
	UserAgent string
}

// Client is a Lookup backed by the ORKG REST API.
type Client struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	retry     retry.Config
	userAgent string
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records every lookup to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client for cfg.
func NewClient(cfg ClientConfig, opts ...Option) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("orkg: invalid base URL %q: %w", base, err)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "schemagraph"
	}

	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		retry:     cfg.Retry,
		userAgent: ua,
		logger:    slog.Default(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchTemplate implements Lookup.
func (c *Client) FetchTemplate(ctx context.Context, id string) (*schema.Template, error) {
	if id == "" {
		return nil, errors.New("orkg: fetch template: empty id")
	}
	endpoint := c.baseURL + "templates/" + url.PathEscape(id)

	start := time.Now()
	tpl, err := retry.DoWithResult(ctx, c.retry, IsTransient, func() (*schema.Template, error) {
		var t schema.Template
		if err := c.getJSON(ctx, metrics.OpFetchTemplate, endpoint, templateMediaType, &t); err != nil {
			return nil, err
		}
		return &t, nil
	})
	c.metrics.ObserveLookup(metrics.OpFetchTemplate, outcome(err), start)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("template %s: %w", id, err)
		}
		return nil, err
	}
	return tpl, nil
}

type statementPage struct {
	Content []statement `json:"content"`
}

type statement struct {
	Subject struct {
		ID      string   `json:"id"`
		Classes []string `json:"classes"`
	} `json:"subject"`
}

// FindTemplatesTargetingClass implements Lookup. It lists sh:targetClass
// statements pointing at classID and keeps subjects that are node shapes.
func (c *Client) FindTemplatesTargetingClass(ctx context.Context, classID string) ([]string, error) {
	if classID == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("object_id", classID)
	q.Set("predicate_id", targetClassPredicate)
	q.Set("page", "0")
	q.Set("size", statementPageSize)
	q.Set("sort", "created_at,desc")
	endpoint := c.baseURL + "statements/?" + q.Encode()

	start := time.Now()
	page, err := retry.DoWithResult(ctx, c.retry, IsTransient, func() (*statementPage, error) {
		var p statementPage
		if err := c.getJSON(ctx, metrics.OpFindByClass, endpoint, statementMediaType, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
	c.metrics.ObserveLookup(metrics.OpFindByClass, outcome(err), start)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(page.Content))
	for _, st := range page.Content {
		if st.Subject.ID == "" || !slices.Contains(st.Subject.Classes, nodeShapeClass) {
			continue
		}
		ids = append(ids, st.Subject.ID)
	}
	return ids, nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint, accept string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("orkg: %s: rate limiter: %w", op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("orkg: %s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("orkg: %s: %w", op, ctxErr)
		}
		return &TransportError{Op: op, URL: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		c.logger.Debug("orkg request failed", "op", op, "url", endpoint, "status", resp.StatusCode)
		return &TransportError{Op: op, URL: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, URL: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
