package pages

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrPageNotFound indicates the store has no page matching a lookup
	ErrPageNotFound = errors.New("page not found")

	// ErrCacheMiss indicates the session cache holds no entry for a key.
	// It is never returned by the manager's public lookups.
	ErrCacheMiss = errors.New("page cache miss")

	// ErrMultiplePages indicates a lookup expected one page and found several
	ErrMultiplePages = errors.New("multiple pages returned")

	// ErrPublicationManagement indicates an unbalanced publication block
	ErrPublicationManagement = errors.New("no active block of publication management")

	// ErrDuplicatePage indicates a permalink or (parent, url_title) collision
	ErrDuplicatePage = errors.New("page already exists")

	// ErrCyclicHierarchy indicates a parent chain that does not reach a root
	ErrCyclicHierarchy = errors.New("page hierarchy contains a cycle")

	// ErrInvalidPage indicates a page failed validation before save
	ErrInvalidPage = errors.New("invalid page")

	// ErrUnknownContentType indicates no content factory is registered for a tag
	ErrUnknownContentType = errors.New("unknown content type")

	// ErrPageHasChildren indicates a store refused to delete a page that still has children
	ErrPageHasChildren = errors.New("page has children")

	// ErrNoSession indicates the context carries no page session
	ErrNoSession = errors.New("no page session in context")
)

// PageError represents an error related to a page operation
type PageError struct {
	PageID int64
	Op     string
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page operation %s failed for page %d: %v", e.Op, e.PageID, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// PublicationManagementError is returned when End is called without a
// matching Begin.
type PublicationManagementError struct {
	Depth int
}

func (e *PublicationManagementError) Error() string {
	return fmt.Sprintf("%v (stack depth %d)", ErrPublicationManagement, e.Depth)
}

func (e *PublicationManagementError) Is(target error) bool {
	return target == ErrPublicationManagement
}

// IdentifierTypeError is returned when a page identifier has an
// unsupported type.
type IdentifierTypeError struct {
	Value interface{}
}

func (e *IdentifierTypeError) Error() string {
	return fmt.Sprintf("expected Page, int or string, found %T", e.Value)
}

// IntegrityError reports stored data that violates a tree invariant, such
// as a site with zero or several homepages.
type IntegrityError struct {
	Op     string
	SiteID int64
	Err    error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s for site %d: %v", e.Op, e.SiteID, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}
