package api

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pagescope/pagescope/pkg/confluence"
	"github.com/pagescope/pagescope/pkg/httputil"
)

// Error translation for the API surface. Confluence failures keep their
// upstream status, kind and detail; only unexpected internal errors are
// reduced to a generic 500.

const (
	// ErrMsgInvalidJSON is returned for JSON parsing errors.
	ErrMsgInvalidJSON = "Invalid JSON in request body"

	// ErrMsgValidationFailed is returned for validation errors.
	ErrMsgValidationFailed = "Request validation failed"

	// ErrMsgInternalError is returned for unexpected internal errors.
	ErrMsgInternalError = "An internal error occurred"
)

// writeUpstreamError reports a failed client call. Upstream errors pass
// through with their status, kind and detail; anything else becomes a 500.
func (a *API) writeUpstreamError(w http.ResponseWriter, operation string, err error) {
	var ue *confluence.UpstreamError
	if errors.As(err, &ue) {
		a.log.Warn("upstream request failed",
			"operation", operation,
			"kind", string(ue.Kind),
			"status", ue.StatusCode,
		)
		httputil.WriteError(w, ue.StatusCode, string(ue.Kind), ue.Detail)
		return
	}

	a.log.Error("operation failed", "operation", operation, "error", err)
	httputil.WriteError(w, http.StatusInternalServerError, "internal_error", ErrMsgInternalError)
}

// writeDenied reports a write rejected by the scope guard.
func (a *API) writeDenied(w http.ResponseWriter, err error) {
	if a.metricsRegistry != nil {
		a.metricsRegistry.RecordScopeDenial()
	}
	httputil.WriteError(w, http.StatusForbidden, "permission_denied", err.Error())
}

// writeValidationError reports a request validation failure, keeping the
// per-field breakdown when there is one.
func writeValidationError(w http.ResponseWriter, err error) {
	var fields validation.Errors
	if errors.As(err, &fields) {
		httputil.WriteErrorWithDetails(w, http.StatusBadRequest, "validation_error", ErrMsgValidationFailed, fields)
		return
	}
	httputil.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
}
