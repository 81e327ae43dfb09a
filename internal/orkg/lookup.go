// Package orkg implements the Remote Schema Lookup the engine traverses:
// fetching template definitions and finding the templates that target a
// class.
//
// The engine depends only on the Lookup interface. Client talks to the ORKG
// REST API; StaticLookup serves templates from memory (fixture files and
// tests).
package orkg

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/HendryAvila/schemagraph/internal/schema"
)

// ErrNotFound is returned when the requested template does not exist.
var ErrNotFound = errors.New("orkg: not found")

// Lookup resolves templates and class→template candidates.
type Lookup interface {
	// FetchTemplate returns the template definition for id.
	FetchTemplate(ctx context.Context, id string) (*schema.Template, error)

	// FindTemplatesTargetingClass returns candidate template IDs whose target
	// class is classID, in the order the source reports them. An empty
	// result is not an error.
	FindTemplatesTargetingClass(ctx context.Context, classID string) ([]string, error)
}

// TransportError describes a failed exchange with the remote API.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("orkg: %s %s: HTTP %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("orkg: %s %s: HTTP %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("orkg: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying: network failures,
// throttling and server-side errors. Not-found and cancellation are final.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	switch {
	case te.StatusCode == 0:
		return true
	case te.StatusCode == http.StatusTooManyRequests:
		return true
	case te.StatusCode >= 500:
		return true
	default:
		return false
	}
}
