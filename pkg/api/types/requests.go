package types

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// maxTitleLength is the Confluence limit on page titles.
const maxTitleLength = 255

// PageCreate is the request body for creating a page. Content is Confluence
// storage-format HTML. ParentID is optional; when omitted the configured
// parent restriction (if any) is used as the parent.
type PageCreate struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
}

// Validate checks the create request.
func (p *PageCreate) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&p.Content, validation.Required),
	)
}

// PageUpdate is the request body for updating a page. Empty fields keep the
// current value; at least one field must be set.
type PageUpdate struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// Validate checks the update request.
func (p *PageUpdate) Validate() error {
	if p.Title == "" && p.Content == "" {
		return errors.New("at least one of title or content must be provided")
	}
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.RuneLength(0, maxTitleLength)),
	)
}

// CommentCreate is the request body for posting a footer comment or replying
// to an inline comment. Body is Confluence storage-format HTML.
type CommentCreate struct {
	Body string `json:"body"`
}

// Validate checks the comment request.
func (c *CommentCreate) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Body, validation.Required),
	)
}
