package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHandleComments tests the comment endpoints. Comment responses are
// upstream passthroughs, so bodies are compared verbatim.
func TestHandleComments(t *testing.T) {
	t.Run("lists inline comments verbatim", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "GET", "/pages/123/inline-comments", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"results":[{"id":"777","body":{"storage":{"value":"<p>note</p>"}}}]}`, rec.Body.String())
		assert.Equal(t, []string{"GET /api/v2/pages/123/inline-comments"}, server.callList())
		assert.Equal(t, "storage", server.lastCommentQuery().Get("body-format"))
	})

	t.Run("lists footer comments verbatim", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "GET", "/pages/123/footer-comments", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"results":[{"id":"880","body":{"storage":{"value":"<p>thanks</p>"}}}]}`, rec.Body.String())
	})

	t.Run("passes an explicit body format through", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "")

		rec := doRequest(api, "GET", "/pages/123/inline-comments?body_format=atlas_doc_format", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "atlas_doc_format", server.lastCommentQuery().Get("body-format"))
	})

	t.Run("replies to an inline comment", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "POST", "/inline-comments/777/reply", map[string]string{
			"body": "ack, fixed",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":"778"}`, rec.Body.String())

		body := server.lastCommentBody()
		require.NotNil(t, body)
		assert.Equal(t, "777", body["parentCommentId"])
		assert.NotContains(t, body, "pageId")
		storage := body["body"].(map[string]interface{})["storage"].(map[string]interface{})
		assert.Equal(t, "ack, fixed", storage["value"])
	})

	t.Run("adds a footer comment", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "POST", "/pages/123/footer-comments", map[string]string{
			"body": "nice work",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":"881"}`, rec.Body.String())

		body := server.lastCommentBody()
		require.NotNil(t, body)
		assert.Equal(t, "123", body["pageId"])
		assert.NotContains(t, body, "parentCommentId")
	})

	t.Run("rejects an empty comment body", func(t *testing.T) {
		server := newMockConfluenceServer()
		defer server.Close()
		api := newTestAPI(server, "1000")

		rec := doRequest(api, "POST", "/pages/123/footer-comments", map[string]string{
			"body": "",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Equal(t, 0, server.callCount())
	})
}
