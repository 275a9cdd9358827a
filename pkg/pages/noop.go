package pages

import (
	"time"
)

// NoopRecorder is a no-operation implementation of Recorder
type NoopRecorder struct{}

// NewNoopRecorder creates a new no-operation recorder
func NewNoopRecorder() Recorder {
	return NoopRecorder{}
}

// CacheLookup does nothing
func (NoopRecorder) CacheLookup(key string, hit bool) {}

// StoreQuery does nothing
func (NoopRecorder) StoreQuery(op string, d time.Duration, err error) {}

// AnonymousPrincipal is an unauthenticated user
type AnonymousPrincipal struct{}

func (AnonymousPrincipal) IsAuthenticated() bool { return false }
func (AnonymousPrincipal) IsStaff() bool         { return false }
func (AnonymousPrincipal) IsActive() bool        { return false }

// User is a plain Principal implementation
type User struct {
	Subject       string
	Authenticated bool
	Staff         bool
	Active        bool
}

func (u User) IsAuthenticated() bool { return u.Authenticated }
func (u User) IsStaff() bool         { return u.Staff }
func (u User) IsActive() bool        { return u.Active }
