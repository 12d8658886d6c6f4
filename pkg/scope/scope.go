// Package scope decides whether write operations stay inside the configured
// parent-page restriction.
//
// The decision is a pure string comparison: no Confluence call is ever made
// to evaluate it, so a rejected write costs zero upstream requests.
package scope

import "errors"

// ErrDenied is returned when a write targets a page outside the configured
// parent scope.
var ErrDenied = errors.New("operation not allowed on a page outside the configured parent scope")

// Policy confines write operations to direct children of one parent page.
// The zero value is an unrestricted policy.
type Policy struct {
	// ParentID is the page ID writes are confined under. Empty means
	// unrestricted.
	ParentID string
}

// Restricted reports whether the policy confines writes at all.
func (p Policy) Restricted() bool {
	return p.ParentID != ""
}

// AllowWrite reports whether a write whose target parent is parentID is
// permitted. Unrestricted policies permit everything; restricted policies
// require exact equality with the configured parent. Reads never consult
// the policy.
func (p Policy) AllowWrite(parentID string) bool {
	if !p.Restricted() {
		return true
	}
	return parentID == p.ParentID
}

// CheckWrite is AllowWrite as an error: it returns ErrDenied when the write
// is out of scope and nil otherwise.
func (p Policy) CheckWrite(parentID string) error {
	if !p.AllowWrite(parentID) {
		return ErrDenied
	}
	return nil
}

// DefaultParent returns the parent a create should use when the caller
// supplied parentID, falling back to the configured parent when the caller
// omitted one. With no restriction and no explicit parent the result is
// empty and the page is created at the space root.
func (p Policy) DefaultParent(parentID string) string {
	if parentID == "" {
		return p.ParentID
	}
	return parentID
}
