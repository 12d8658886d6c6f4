package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCreateValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     PageCreate
		wantErr bool
	}{
		{
			name: "valid",
			req:  PageCreate{Title: "Release notes", Content: "<p>hello</p>"},
		},
		{
			name: "valid with parent",
			req:  PageCreate{Title: "Child", Content: "<p>x</p>", ParentID: "12345"},
		},
		{
			name:    "missing title",
			req:     PageCreate{Content: "<p>x</p>"},
			wantErr: true,
		},
		{
			name:    "missing content",
			req:     PageCreate{Title: "No body"},
			wantErr: true,
		},
		{
			name:    "title too long",
			req:     PageCreate{Title: strings.Repeat("a", 256), Content: "<p>x</p>"},
			wantErr: true,
		},
		{
			name: "title at limit",
			req:  PageCreate{Title: strings.Repeat("a", 255), Content: "<p>x</p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPageUpdateValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     PageUpdate
		wantErr bool
	}{
		{name: "title only", req: PageUpdate{Title: "Renamed"}},
		{name: "content only", req: PageUpdate{Content: "<p>new</p>"}},
		{name: "both", req: PageUpdate{Title: "Renamed", Content: "<p>new</p>"}},
		{name: "empty", req: PageUpdate{}, wantErr: true},
		{
			name:    "title too long",
			req:     PageUpdate{Title: strings.Repeat("b", 300)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommentCreateValidate(t *testing.T) {
	assert.NoError(t, (&CommentCreate{Body: "<p>looks good</p>"}).Validate())
	assert.Error(t, (&CommentCreate{}).Validate())
}
