package confluence

// Links holds the hypermedia links Confluence attaches to its responses.
// Only a handful matter here: "base" and "webui" combine into the absolute
// browser URL of a page, and "next" drives search pagination.
type Links map[string]string

// Content is a Confluence v1 content object, reduced to the fields pagescope
// reads. Ancestors are ordered root-first, so the last entry is the direct
// parent.
type Content struct {
	ID        string    `json:"id,omitempty"`
	Type      string    `json:"type,omitempty"`
	Status    string    `json:"status,omitempty"`
	Title     string    `json:"title,omitempty"`
	Ancestors []Content `json:"ancestors,omitempty"`
	Body      *Body     `json:"body,omitempty"`
	Version   *Version  `json:"version,omitempty"`
	Links     Links     `json:"_links,omitempty"`
}

// ParentID returns the ID of the direct parent page, or "" for a page with
// no ancestors.
func (c *Content) ParentID() string {
	if len(c.Ancestors) == 0 {
		return ""
	}
	return c.Ancestors[len(c.Ancestors)-1].ID
}

// ParentTitle returns the title of the direct parent page, or "".
func (c *Content) ParentTitle() string {
	if len(c.Ancestors) == 0 {
		return ""
	}
	return c.Ancestors[len(c.Ancestors)-1].Title
}

// Body holds content bodies in the representations pagescope requests.
type Body struct {
	Storage    *BodyValue `json:"storage,omitempty"`
	ExportView *BodyValue `json:"export_view,omitempty"`
}

// BodyValue is a single body representation.
type BodyValue struct {
	Value          string `json:"value"`
	Representation string `json:"representation,omitempty"`
}

// storageValue returns the storage-format HTML, or "".
func (b *Body) storageValue() string {
	if b == nil || b.Storage == nil {
		return ""
	}
	return b.Storage.Value
}

// exportValue returns the export-view HTML, or "".
func (b *Body) exportValue() string {
	if b == nil || b.ExportView == nil {
		return ""
	}
	return b.ExportView.Value
}

// Version is content version metadata.
type Version struct {
	Number       int    `json:"number"`
	When         string `json:"when,omitempty"`
	FriendlyWhen string `json:"friendlyWhen,omitempty"`
	By           *User  `json:"by,omitempty"`
}

// User identifies the actor on a version.
type User struct {
	DisplayName string `json:"displayName,omitempty"`
}

// contentList is the paged container for child-page listings.
type contentList struct {
	Results []Content `json:"results"`
	Links   Links     `json:"_links,omitempty"`
}

// SearchResponse is a CQL search result. Search aggregates cursor pages into
// a single response, so Results may span several upstream batches; Size is
// recomputed to match and Links keeps the first batch's links.
type SearchResponse struct {
	Results        []SearchResult `json:"results"`
	Start          int            `json:"start,omitempty"`
	Limit          int            `json:"limit,omitempty"`
	Size           int            `json:"size"`
	TotalSize      int            `json:"totalSize,omitempty"`
	CQLQuery       string         `json:"cqlQuery,omitempty"`
	SearchDuration int            `json:"searchDuration,omitempty"`
	Links          Links          `json:"_links,omitempty"`
}

// SearchResult is a single CQL hit.
type SearchResult struct {
	Content              *Content `json:"content,omitempty"`
	Title                string   `json:"title,omitempty"`
	Excerpt              string   `json:"excerpt,omitempty"`
	URL                  string   `json:"url,omitempty"`
	LastModified         string   `json:"lastModified,omitempty"`
	FriendlyLastModified string   `json:"friendlyLastModified,omitempty"`
}
