package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/despeckle/internal/adapters/svgdoc"
	"github.com/okian/despeckle/internal/domain/path"
	"github.com/okian/despeckle/internal/domain/purge"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrUnprocessable = errors.New("unprocessable path")
	ErrUnavailable   = errors.New("service unavailable")
)

// kindError attaches an API kind to an operation and an optional cause.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}

// WrapKind returns err tagged with kind and op. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{op: op, kind: kind, err: err}
}

// classify maps a service error to an API kind.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, purge.ErrInvalidOptions), errors.Is(err, svgdoc.ErrMalformedDocument):
		return WrapKind(op, ErrBadRequest, err)
	case errors.Is(err, path.ErrUnsupportedCommand), errors.Is(err, path.ErrMalformedPath):
		return WrapKind(op, ErrUnprocessable, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return WrapKind(op, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// statusOf returns the HTTP status and response code for err.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, path.ErrUnsupportedCommand):
		return http.StatusUnprocessableEntity, "unsupported_command"
	case errors.Is(err, ErrUnprocessable):
		return http.StatusUnprocessableEntity, "malformed_path"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
