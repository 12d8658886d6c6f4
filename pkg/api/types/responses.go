// Package types provides the shared wire types of the pagescope HTTP API.
// Handlers and the Confluence client both map into these shapes, keeping a
// single definition of the simplified contract exposed to callers.
package types

// ErrorResponse is the standard error envelope used across all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// HealthResponse is a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int    `json:"uptime,omitempty"`
}

// Page is the condensed shape returned by write operations. It carries just
// enough for a caller to locate the page and reason about optimistic
// concurrency, not the full Confluence content object.
type Page struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version int    `json:"version"`
	URL     string `json:"url,omitempty"`
}

// PageSummary is the read-side projection of a Confluence page: storage HTML
// already converted to Markdown, the direct parent resolved from the ancestor
// chain, and an absolute browser URL. Children is populated only when the
// caller asks for the subtree.
type PageSummary struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Content         string        `json:"content"`
	URL             string        `json:"url,omitempty"`
	LastModified    string        `json:"last_modified,omitempty"`
	ParentPageID    string        `json:"parent_page_id,omitempty"`
	ParentPageTitle string        `json:"parent_page_title,omitempty"`
	Modifier        string        `json:"modifier,omitempty"`
	Children        []PageSummary `json:"children,omitempty"`
}

// DeleteResponse acknowledges a successful page deletion.
type DeleteResponse struct {
	Status string `json:"status"`
}
