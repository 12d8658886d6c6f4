package api

import (
	"encoding/json"
	"net/http"

	"github.com/pagescope/pagescope/pkg/api/types"
	"github.com/pagescope/pagescope/pkg/httputil"
)

// Comment endpoints proxy the Confluence v2 comment API and pass its
// responses through untouched. Comments are not pages, so the parent-page
// guard does not apply to them.

// handleListInlineComments lists the inline comments of a page.
func (a *API) handleListInlineComments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	raw, err := a.client.GetInlineComments(r.Context(), id, bodyFormat(r))
	if err != nil {
		a.writeUpstreamError(w, "list inline comments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, raw)
}

// handleReplyInlineComment posts a reply to an existing inline comment.
func (a *API) handleReplyInlineComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req types.CommentCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_json", ErrMsgInvalidJSON)
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	raw, err := a.client.ReplyInlineComment(r.Context(), id, req.Body)
	if err != nil {
		a.writeUpstreamError(w, "reply inline comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, raw)
}

// handleListFooterComments lists the footer comments of a page.
func (a *API) handleListFooterComments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	raw, err := a.client.GetFooterComments(r.Context(), id, bodyFormat(r))
	if err != nil {
		a.writeUpstreamError(w, "list footer comments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, raw)
}

// handleAddFooterComment adds a footer comment to a page.
func (a *API) handleAddFooterComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req types.CommentCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_json", ErrMsgInvalidJSON)
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	raw, err := a.client.AddFooterComment(r.Context(), id, req.Body)
	if err != nil {
		a.writeUpstreamError(w, "add footer comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, raw)
}

// bodyFormat returns the requested comment body representation, defaulting
// to storage format.
func bodyFormat(r *http.Request) string {
	if format := r.URL.Query().Get("body_format"); format != "" {
		return format
	}
	return "storage"
}
