package api

import (
	"net/http"
	"time"

	"github.com/pagescope/pagescope/pkg/api/types"
	"github.com/pagescope/pagescope/pkg/httputil"
	"github.com/pagescope/pagescope/pkg/metrics"
)

func (a *API) registerRoutes(mux *http.ServeMux) {
	// Service endpoints
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	// Pages
	mux.HandleFunc("GET /pages", a.handleListPages)
	mux.HandleFunc("POST /pages", a.handleCreatePage)
	mux.HandleFunc("GET /pages/{id}", a.handleGetPage)
	mux.HandleFunc("PUT /pages/{id}", a.handleUpdatePage)
	mux.HandleFunc("DELETE /pages/{id}", a.handleDeletePage)

	// Search
	mux.HandleFunc("GET /search", a.handleSearch)

	// Comments
	mux.HandleFunc("GET /pages/{id}/inline-comments", a.handleListInlineComments)
	mux.HandleFunc("POST /inline-comments/{id}/reply", a.handleReplyInlineComment)
	mux.HandleFunc("GET /pages/{id}/footer-comments", a.handleListFooterComments)
	mux.HandleFunc("POST /pages/{id}/footer-comments", a.handleAddFooterComment)

	// API documentation
	mux.HandleFunc("GET /openapi.json", a.handleOpenAPIJSON)
	mux.HandleFunc("GET /openapi.yaml", a.handleOpenAPIYAML)
	mux.HandleFunc("GET /docs", a.handleDocs)
}

// handleHealth returns service liveness and uptime.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, types.HealthResponse{
		Status: "ok",
		Uptime: int(time.Since(a.startTime).Seconds()),
	})
}
