package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pagescope/pagescope/pkg/api/types"
	"github.com/pagescope/pagescope/pkg/httputil"
)

// handleListPages returns the pages of the configured space as summaries,
// confined to the configured parent subtree when a restriction is set.
func (a *API) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := a.client.ListPages(r.Context(), a.spaceKey, a.policy.ParentID)
	if err != nil {
		a.writeUpstreamError(w, "list pages", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pages)
}

// handleGetPage returns a single page summary, optionally with its whole
// child subtree. Reads are never restricted by the scope guard.
func (a *API) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	includeChildren, _ := strconv.ParseBool(r.URL.Query().Get("include_children"))

	summary, err := a.client.GetPageSummary(r.Context(), id, includeChildren)
	if err != nil {
		a.writeUpstreamError(w, "get page", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// handleCreatePage creates a page. The parent defaults to the configured
// restriction, and the guard decides before any upstream call is made.
func (a *API) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req types.PageCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_json", ErrMsgInvalidJSON)
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	parentID := a.policy.DefaultParent(req.ParentID)
	if err := a.policy.CheckWrite(parentID); err != nil {
		a.writeDenied(w, err)
		return
	}

	page, err := a.client.CreatePage(r.Context(), a.spaceKey, req.Title, req.Content, parentID)
	if err != nil {
		a.writeUpstreamError(w, "create page", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, page)
}

// handleUpdatePage writes a new version of a page. The current page is
// fetched first (reads are unguarded) so the guard can check its direct
// parent; a rejected update never issues the write.
func (a *API) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req types.PageUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_json", ErrMsgInvalidJSON)
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	current, err := a.client.GetPage(r.Context(), id)
	if err != nil {
		a.writeUpstreamError(w, "get page", err)
		return
	}
	if err := a.policy.CheckWrite(current.ParentID()); err != nil {
		a.writeDenied(w, err)
		return
	}

	page, err := a.client.UpdatePage(r.Context(), current, req.Title, req.Content)
	if err != nil {
		a.writeUpstreamError(w, "update page", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// handleDeletePage deletes a page under the same guard flow as updates.
func (a *API) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	current, err := a.client.GetPage(r.Context(), id)
	if err != nil {
		a.writeUpstreamError(w, "get page", err)
		return
	}
	if err := a.policy.CheckWrite(current.ParentID()); err != nil {
		a.writeDenied(w, err)
		return
	}

	if err := a.client.DeletePage(r.Context(), id); err != nil {
		a.writeUpstreamError(w, "delete page", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, types.DeleteResponse{Status: "deleted"})
}
