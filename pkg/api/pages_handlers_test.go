package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagescope/pagescope/pkg/api/types"
	"github.com/pagescope/pagescope/pkg/scope"
)

// TestHandleCreatePage tests the POST /pages handler, including the scope
// guard deciding before any upstream traffic.
func TestHandleCreatePage(t *testing.T) {
	t.Run("defaults the parent to the configured restriction", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "POST", "/pages", map[string]string{
			"title":   "New Runbook",
			"content": "<p>fresh</p>",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		body := server.lastCreateBody()
		require.NotNil(t, body)
		ancestors, ok := body["ancestors"].([]interface{})
		require.True(t, ok, "create request should carry ancestors")
		require.Len(t, ancestors, 1)
		ref, ok := ancestors[0].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "1000", ref["id"])

		space, ok := body["space"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "DOCS", space["key"])

		var page types.Page
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(t, "9001", page.ID)
		assert.Equal(t, "New Runbook", page.Title)
		assert.Equal(t, 1, page.Version)
	})

	t.Run("allows an explicit parent inside the scope", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "POST", "/pages", map[string]string{
			"title":     "New Runbook",
			"content":   "<p>fresh</p>",
			"parent_id": "1000",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, server.callCount())
	})

	t.Run("rejects a parent outside the scope without calling upstream", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "POST", "/pages", map[string]string{
			"title":     "Escape attempt",
			"content":   "<p>nope</p>",
			"parent_id": "2000",
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "permission_denied", resp.Error)
		assert.Equal(t, scope.ErrDenied.Error(), resp.Message)

		assert.Equal(t, 0, server.callCount(), "a rejected create must not reach upstream")
	})

	t.Run("allows any parent when unrestricted", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "POST", "/pages", map[string]string{
			"title":     "Anywhere",
			"content":   "<p>free</p>",
			"parent_id": "2000",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "POST", "/pages", "{not json")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "invalid_json", resp.Error)
		assert.Equal(t, 0, server.callCount())
	})

	t.Run("rejects a missing title with field details", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "POST", "/pages", map[string]string{
			"content": "<p>untitled</p>",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "validation_error", resp.Error)
		details, ok := resp.Details.(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, details, "title")
		assert.Equal(t, 0, server.callCount())
	})
}

// TestHandleUpdatePage tests the PUT /pages/{id} handler. The guard checks
// the current parent of the page, so an update costs one read before the
// decision and rejected updates never issue the write.
func TestHandleUpdatePage(t *testing.T) {
	t.Run("updates a page inside the scope", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "PUT", "/pages/123", map[string]string{
			"title": "Runbook v2",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{
			"GET /rest/api/content/123",
			"PUT /rest/api/content/123",
		}, server.callList())

		var page types.Page
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(t, "Runbook v2", page.Title)
		assert.Equal(t, 4, page.Version, "version should be bumped by one")

		body := server.lastUpdateBody()
		require.NotNil(t, body)
		storage := body["body"].(map[string]interface{})["storage"].(map[string]interface{})
		assert.Equal(t, "<p>steps</p>", storage["value"], "omitted content keeps the current body")
	})

	t.Run("rejects a page outside the scope before the write", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "PUT", "/pages/456", map[string]string{
			"title": "Sneaky rename",
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "permission_denied", resp.Error)

		assert.Equal(t, []string{"GET /rest/api/content/456"}, server.callList(),
			"a rejected update reads the page but never writes")
	})

	t.Run("rejects a root page under a restriction", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "PUT", "/pages/789", map[string]string{
			"title": "New home",
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("requires at least one field", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "PUT", "/pages/123", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Equal(t, 0, server.callCount())
	})

	t.Run("passes through an upstream not found", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "PUT", "/pages/999", map[string]string{
			"title": "Ghost",
		})

		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "not_found", resp.Error)
	})
}

// TestHandleDeletePage tests the DELETE /pages/{id} handler.
func TestHandleDeletePage(t *testing.T) {
	t.Run("deletes a page inside the scope", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "DELETE", "/pages/123", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{
			"GET /rest/api/content/123",
			"DELETE /rest/api/content/123",
		}, server.callList())

		var resp types.DeleteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "deleted", resp.Status)
	})

	t.Run("rejects a page outside the scope before the delete", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "DELETE", "/pages/456", nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, []string{"GET /rest/api/content/456"}, server.callList())
	})

	t.Run("deletes anywhere when unrestricted", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "DELETE", "/pages/456", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("passes through an upstream not found", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "DELETE", "/pages/999", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestHandleGetPage tests the GET /pages/{id} handler. Reads never consult
// the scope guard.
func TestHandleGetPage(t *testing.T) {
	t.Run("reads a page outside the scope", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "GET", "/pages/456", nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var summary types.PageSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, "456", summary.ID)
		assert.Equal(t, "Postmortem", summary.Title)
		assert.Equal(t, "2000", summary.ParentPageID)
		assert.Equal(t, "Archive", summary.ParentPageTitle)
		assert.Equal(t, mockSiteBase+"/spaces/DOCS/pages/456", summary.URL)
		assert.Equal(t, "Dana", summary.Modifier)
	})

	t.Run("fetches children when requested", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "GET", "/pages/123?include_children=true", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, server.callList(), "GET /rest/api/content/123/child/page")
	})

	t.Run("maps an upstream not found", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "GET", "/pages/999", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "not_found", resp.Error)
		assert.NotEmpty(t, resp.Message)
	})
}

// TestHandleListPages tests the GET /pages handler.
func TestHandleListPages(t *testing.T) {
	t.Run("confines the listing to the configured parent", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "GET", "/pages", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		query := server.lastSearchQuery()
		assert.Equal(t, "space=DOCS and type=page and ancestor=1000", query.Get("cql"))

		var pages []types.PageSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pages))
		require.Len(t, pages, 1, "results without content are filtered out")
		assert.Equal(t, "123", pages[0].ID)
		assert.Equal(t, mockSiteBase+"/spaces/DOCS/pages/123", pages[0].URL)
		assert.Equal(t, "yesterday", pages[0].LastModified)
	})

	t.Run("lists the whole space when unrestricted", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "GET", "/pages", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "space=DOCS and type=page", server.lastSearchQuery().Get("cql"))
	})
}
