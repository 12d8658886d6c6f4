// Package confluence implements the HTTP client for the Confluence Cloud
// REST API. It speaks the v1 content and search endpoints plus the v2
// comment endpoints, converts page bodies to Markdown, and normalizes every
// failure into an UpstreamError. The client is purely an upstream adapter:
// scope decisions live in the scope package and never here.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/pagescope/pagescope/pkg/api/types"
	"github.com/pagescope/pagescope/pkg/metrics"
)

const (
	// searchBatchSize is how many results each upstream search request asks
	// for while following cursor pagination.
	searchBatchSize = 25

	// defaultSearchLimit caps a search when the caller does not say.
	defaultSearchLimit = 100

	// listPagesLimit caps the flat page listing.
	listPagesLimit = 1000

	defaultTimeout = 30 * time.Second
)

// Client is an HTTP client for a Confluence Cloud site. All requests carry
// basic auth with the account email and API token.
type Client struct {
	baseURL    string
	username   string
	token      string
	httpClient *http.Client
	markdown   *md.Converter
	metrics    *metrics.Registry
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMetrics enables upstream request metrics.
func WithMetrics(registry *metrics.Registry) Option {
	return func(c *Client) {
		c.metrics = registry
	}
}

// New creates a new Confluence client for the site at baseURL.
func New(baseURL, username, token string, opts ...Option) *Client {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		baseURL:  baseURL,
		username: username,
		token:    token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		markdown: newMarkdownConverter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPage fetches a page with its storage body, version and ancestors. The
// ancestors are what the scope guard derives the direct parent from.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Content, error) {
	query := url.Values{"expand": {"body.storage,version,ancestors"}}
	resp, err := c.get(ctx, "rest/api/content/"+pageID, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}

	var page Content
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	return &page, nil
}

// GetPageSummary fetches a page and maps it to the summary shape: Markdown
// body, absolute URL, direct parent and last-modified metadata. When
// includeChildren is set the whole child subtree is fetched recursively.
func (c *Client) GetPageSummary(ctx context.Context, pageID string, includeChildren bool) (*types.PageSummary, error) {
	query := url.Values{"expand": {"body.export_view,ancestors,version"}}
	resp, err := c.get(ctx, "rest/api/content/"+pageID, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}

	var page Content
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}

	summary := c.summarize(&page, page.Links["base"])
	if page.Version != nil && page.Version.By != nil {
		summary.Modifier = page.Version.By.DisplayName
	}
	if includeChildren {
		children, err := c.childPages(ctx, pageID)
		if err != nil {
			return nil, err
		}
		summary.Children = children
	}
	return &summary, nil
}

// childPages recursively fetches the children of pageID as summaries.
func (c *Client) childPages(ctx context.Context, pageID string) ([]types.PageSummary, error) {
	query := url.Values{"expand": {"body.export_view,ancestors,version"}}
	resp, err := c.get(ctx, "rest/api/content/"+pageID+"/child/page", query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}

	var list contentList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode child pages: %w", err)
	}

	base := list.Links["base"]
	var children []types.PageSummary
	for i := range list.Results {
		child := &list.Results[i]
		item := c.summarize(child, base)
		descendants, err := c.childPages(ctx, child.ID)
		if err != nil {
			return nil, err
		}
		item.Children = descendants
		children = append(children, item)
	}
	return children, nil
}

// summarize maps a content object onto the summary shape. base is the site
// base URL the webui link is resolved against.
func (c *Client) summarize(page *Content, base string) types.PageSummary {
	s := types.PageSummary{
		ID:              page.ID,
		Title:           page.Title,
		Content:         c.htmlToMarkdown(page.Body.exportValue()),
		URL:             base + page.Links["webui"],
		ParentPageID:    page.ParentID(),
		ParentPageTitle: page.ParentTitle(),
	}
	if page.Version != nil {
		s.LastModified = page.Version.FriendlyWhen
	}
	return s
}

// ListPages lists the pages of a space as summaries. When ancestorID is set
// the listing is confined to that subtree; both conditions go into the CQL
// query, so the confinement happens upstream rather than by filtering here.
func (c *Client) ListPages(ctx context.Context, spaceKey, ancestorID string) ([]types.PageSummary, error) {
	cql := fmt.Sprintf("space=%s and type=page", spaceKey)
	if ancestorID != "" {
		cql += fmt.Sprintf(" and ancestor=%s", ancestorID)
	}

	expand := []string{"title", "url", "content.body.export_view", "content.ancestors"}
	data, err := c.Search(ctx, cql, listPagesLimit, expand)
	if err != nil {
		return nil, err
	}

	base := data.Links["base"]
	pages := make([]types.PageSummary, 0, len(data.Results))
	for _, result := range data.Results {
		if result.Title == "" || result.Content == nil {
			continue
		}
		pages = append(pages, types.PageSummary{
			ID:              result.Content.ID,
			Title:           result.Title,
			Content:         c.htmlToMarkdown(result.Content.Body.exportValue()),
			URL:             base + result.URL,
			LastModified:    result.FriendlyLastModified,
			ParentPageID:    result.Content.ParentID(),
			ParentPageTitle: result.Content.ParentTitle(),
		})
	}
	return pages, nil
}

// Search runs a CQL query, following cursor pagination until limit results
// are collected or the cursor runs out. Metadata comes from the first batch;
// Size is recomputed over the aggregated results.
func (c *Client) Search(ctx context.Context, cql string, limit int, expand []string) (*SearchResponse, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	batch := searchBatchSize
	if limit < batch {
		batch = limit
	}

	query := url.Values{
		"cql":   {cql},
		"limit": {strconv.Itoa(batch)},
	}
	if len(expand) > 0 {
		query.Set("expand", strings.Join(expand, ","))
	}

	resp, err := c.get(ctx, "rest/api/search", query)
	if err != nil {
		return nil, err
	}
	first, err := c.decodeSearch(resp)
	if err != nil {
		return nil, err
	}

	result := *first
	results := first.Results
	page := first
	for page.Links["next"] != "" && len(results) < limit {
		next := page.Links["next"]
		if strings.HasPrefix(next, "/") {
			next = strings.TrimSuffix(c.baseURL, "/") + next
		}
		resp, err := c.getURL(ctx, next)
		if err != nil {
			return nil, err
		}
		page, err = c.decodeSearch(resp)
		if err != nil {
			return nil, err
		}
		results = append(results, page.Results...)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	result.Results = results
	result.Size = len(results)
	return &result, nil
}

func (c *Client) decodeSearch(resp *http.Response) (*SearchResponse, error) {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}

	var page SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &page, nil
}

// CreatePage creates a storage-format page in the given space, optionally
// under a parent.
func (c *Client) CreatePage(ctx context.Context, spaceKey, title, content, parentID string) (*types.Page, error) {
	body := createRequest{
		Type:  "page",
		Title: title,
		Space: spaceRef{Key: spaceKey},
		Body:  storageBody(content),
	}
	if parentID != "" {
		body.Ancestors = []ancestorRef{{ID: parentID}}
	}

	resp, err := c.post(ctx, "rest/api/content", body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}

	var page Content
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode created page: %w", err)
	}
	return toPage(&page), nil
}

// UpdatePage writes a new version of a page previously fetched with GetPage.
// Empty title or content keep the current values; the version number is
// bumped by one, as the Confluence update contract requires.
func (c *Client) UpdatePage(ctx context.Context, current *Content, title, content string) (*types.Page, error) {
	if title == "" {
		title = current.Title
	}
	if content == "" {
		content = current.Body.storageValue()
	}
	version := 1
	if current.Version != nil {
		version = current.Version.Number
	}

	body := updateRequest{
		ID:      current.ID,
		Type:    "page",
		Title:   title,
		Version: Version{Number: version + 1},
		Body:    storageBody(content),
	}

	resp, err := c.put(ctx, "rest/api/content/"+current.ID, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}

	var page Content
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode updated page: %w", err)
	}
	return toPage(&page), nil
}

// DeletePage removes a page. Confluence answers 204 with no body.
func (c *Client) DeletePage(ctx context.Context, pageID string) error {
	resp, err := c.delete(ctx, "rest/api/content/"+pageID)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}
	return nil
}

// GetInlineComments lists the inline comments of a page via the v2 API. The
// upstream response is passed through untouched.
func (c *Client) GetInlineComments(ctx context.Context, pageID, bodyFormat string) (json.RawMessage, error) {
	return c.getComments(ctx, "api/v2/pages/"+pageID+"/inline-comments", bodyFormat)
}

// GetFooterComments lists the footer comments of a page via the v2 API.
func (c *Client) GetFooterComments(ctx context.Context, pageID, bodyFormat string) (json.RawMessage, error) {
	return c.getComments(ctx, "api/v2/pages/"+pageID+"/footer-comments", bodyFormat)
}

func (c *Client) getComments(ctx context.Context, path, bodyFormat string) (json.RawMessage, error) {
	query := url.Values{}
	if bodyFormat != "" {
		query.Set("body-format", bodyFormat)
	}
	resp, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}
	return rawBody(resp)
}

// ReplyInlineComment posts a reply to an existing inline comment.
func (c *Client) ReplyInlineComment(ctx context.Context, commentID, body string) (json.RawMessage, error) {
	req := commentRequest{
		ParentCommentID: commentID,
		Body:            storageBody(body),
	}
	return c.postComment(ctx, "api/v2/inline-comments", req)
}

// AddFooterComment adds a footer comment to a page.
func (c *Client) AddFooterComment(ctx context.Context, pageID, body string) (json.RawMessage, error) {
	req := commentRequest{
		PageID: pageID,
		Body:   storageBody(body),
	}
	return c.postComment(ctx, "api/v2/footer-comments", req)
}

func (c *Client) postComment(ctx context.Context, path string, req commentRequest) (json.RawMessage, error) {
	resp, err := c.post(ctx, path, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}
	return rawBody(resp)
}

// storageBody wraps storage-format HTML into a content body.
func storageBody(value string) Body {
	return Body{Storage: &BodyValue{Value: value, Representation: "storage"}}
}

// toPage maps a content write response onto the condensed page shape.
func toPage(page *Content) *types.Page {
	p := &types.Page{
		ID:    page.ID,
		Title: page.Title,
		URL:   page.Links["base"] + page.Links["webui"],
	}
	if page.Version != nil {
		p.Version = page.Version.Number
	}
	return p
}

type spaceRef struct {
	Key string `json:"key"`
}

type ancestorRef struct {
	ID string `json:"id"`
}

type createRequest struct {
	Type      string        `json:"type"`
	Title     string        `json:"title"`
	Space     spaceRef      `json:"space"`
	Body      Body          `json:"body"`
	Ancestors []ancestorRef `json:"ancestors,omitempty"`
}

type updateRequest struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Title   string  `json:"title"`
	Version Version `json:"version"`
	Body    Body    `json:"body"`
}

type commentRequest struct {
	PageID          string `json:"pageId,omitempty"`
	ParentCommentID string `json:"parentCommentId,omitempty"`
	Body            Body   `json:"body"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// getURL fetches an absolute URL, used for pagination links.
func (c *Client) getURL(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) put(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "PUT", c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) delete(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordUpstreamTransportError(req.Method)
		}
		return nil, transportError(err)
	}
	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(req.Method, resp.StatusCode)
	}
	return resp, nil
}

// parseError turns a non-2xx upstream response into an UpstreamError. The
// structured Confluence error message is preferred; the raw body is the
// fallback so nothing upstream says gets lost.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	detail := strings.TrimSpace(string(body))

	var upstream struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &upstream) == nil && upstream.Message != "" {
		detail = upstream.Message
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	return &UpstreamError{
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Detail:     detail,
	}
}

func rawBody(resp *http.Response) (json.RawMessage, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}
	return json.RawMessage(data), nil
}
