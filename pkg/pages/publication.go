package pages

import (
	"net/url"
	"strconv"
)

// DefaultPreviewKey is the query parameter that requests preview mode.
const DefaultPreviewKey = "preview"

// PublicationManager tracks whether queries made within a session should be
// filtered to published pages. Modes are stacked so nested blocks can
// override and then restore the outer mode.
//
// A PublicationManager belongs to one Session and is not safe for
// concurrent use.
type PublicationManager struct {
	stack      []bool
	previewKey string
}

// NewPublicationManager creates a manager with an empty stack, which means
// unfiltered.
func NewPublicationManager(previewKey string) *PublicationManager {
	if previewKey == "" {
		previewKey = DefaultPreviewKey
	}
	return &PublicationManager{previewKey: previewKey}
}

// Begin starts a block using the given publication setting.
func (m *PublicationManager) Begin(selectPublished bool) {
	m.stack = append(m.stack, selectPublished)
}

// End ends the most recent block.
func (m *PublicationManager) End() error {
	if len(m.stack) == 0 {
		return &PublicationManagementError{Depth: 0}
	}
	m.stack = m.stack[:len(m.stack)-1]
	return nil
}

// SelectPublishedActive reports whether queries should exclude unpublished
// pages.
func (m *PublicationManager) SelectPublishedActive() bool {
	if len(m.stack) == 0 {
		return false
	}
	return m.stack[len(m.stack)-1]
}

// Depth returns the number of open blocks.
func (m *PublicationManager) Depth() int {
	return len(m.stack)
}

// Scoped runs fn inside a block using the given publication setting. The
// block is ended on every exit path, including a panic in fn.
func (m *PublicationManager) Scoped(selectPublished bool, fn func() error) (err error) {
	m.Begin(selectPublished)
	defer func() {
		if endErr := m.End(); endErr != nil && err == nil {
			err = endErr
		}
	}()
	return fn()
}

// PreviewRequested reports whether the request parameters ask for preview
// mode and the principal may use it. Only authenticated, active staff may
// preview.
func (m *PublicationManager) PreviewRequested(query url.Values, user Principal) bool {
	if !truthy(query.Get(m.previewKey)) {
		return false
	}
	if user == nil {
		return false
	}
	return user.IsAuthenticated() && user.IsStaff() && user.IsActive()
}

func truthy(raw string) bool {
	if raw == "" {
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n != 0
	}
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}
