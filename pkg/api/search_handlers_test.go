package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagescope/pagescope/pkg/confluence"
)

// TestHandleSearch tests the GET /search handler.
func TestHandleSearch(t *testing.T) {
	t.Run("requires the cql parameter", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "GET", "/search", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "missing_parameter", resp.Error)
		assert.Equal(t, "cql query parameter is required", resp.Message)
		assert.Equal(t, 0, server.callCount())
	})

	t.Run("rejects a non-positive limit", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "GET", "/search?cql=type%3Dpage&limit=0", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Equal(t, 0, server.callCount())
	})

	t.Run("rejects a non-numeric limit", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "GET", "/search?cql=type%3Dpage&limit=ten", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("passes the query through", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "GET", "/search?cql=space%3DDOCS", nil)

		require.Equal(t, http.StatusOK, rec.Code)

		query := server.lastSearchQuery()
		assert.Equal(t, "space=DOCS", query.Get("cql"))
		assert.Equal(t, "25", query.Get("limit"), "batches are capped at the upstream page size")

		var resp confluence.SearchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Size)
		assert.Len(t, resp.Results, 2)
	})

	t.Run("caps the batch at the requested limit", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "GET", "/search?cql=type%3Dpage&limit=5", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "5", server.lastSearchQuery().Get("limit"))
	})
}
