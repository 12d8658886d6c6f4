package api

import (
	"net/http"
	"strconv"

	"github.com/pagescope/pagescope/pkg/httputil"
)

// defaultSearchLimit caps a search when the caller does not pass a limit.
const defaultSearchLimit = 100

// handleSearch runs a raw CQL query against Confluence. The aggregated
// search response is returned as-is; search is a read and never guarded.
func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	cql := r.URL.Query().Get("cql")
	if cql == "" {
		httputil.WriteError(w, http.StatusBadRequest, "missing_parameter", "cql query parameter is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	result, err := a.client.Search(r.Context(), cql, limit, nil)
	if err != nil {
		a.writeUpstreamError(w, "search", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
