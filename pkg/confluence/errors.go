package confluence

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an upstream failure. The values double as the error codes
// the HTTP layer puts in its error envelope.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindConflict     Kind = "conflict"
	KindUnavailable  Kind = "upstream_unavailable"
	KindUnknown      Kind = "upstream_error"
)

// UpstreamError reports a failed Confluence request. StatusCode is the HTTP
// status Confluence answered with, or 502 when the request never produced a
// response. Detail carries the upstream error message, falling back to the
// raw response body.
type UpstreamError struct {
	Kind       Kind
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("confluence: %s (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("confluence: %s (status %d): %s", e.Kind, e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is an upstream not-found error.
func IsNotFound(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == KindNotFound
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// transportError wraps a failure that happened before Confluence could answer
// (DNS, connect, TLS, timeout). Those all surface as 502.
func transportError(err error) *UpstreamError {
	return &UpstreamError{
		Kind:       KindUnavailable,
		StatusCode: http.StatusBadGateway,
		Detail:     err.Error(),
	}
}
