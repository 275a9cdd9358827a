package pages

import (
	"context"

	"github.com/google/uuid"
)

// Session is the per-request (or per-task) state shared by the managers: a
// publication manager and a page cache. Create one at the start of each
// unit of work and drop it at the end; that is the cache reset boundary.
//
// A Session is not safe for concurrent use.
type Session struct {
	ID          uuid.UUID
	Publication *PublicationManager
	Cache       *PageCache
}

// SessionOptions configures new sessions.
type SessionOptions struct {
	PreviewKey  string
	CachePolicy CachePolicy
	Clock       Clock
}

// NewSession creates a session with an empty publication stack and cache.
func NewSession(opts SessionOptions) *Session {
	return &Session{
		ID:          uuid.New(),
		Publication: NewPublicationManager(opts.PreviewKey),
		Cache:       NewPageCache(opts.CachePolicy, opts.Clock),
	}
}

type contextKey string

const (
	sessionKey contextKey = "pages_session"
	siteKey    contextKey = "pages_site"
)

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom returns the session carried by ctx, or nil.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// Scoped runs fn in a publication block of the session carried by ctx.
func Scoped(ctx context.Context, selectPublished bool, fn func() error) error {
	s := SessionFrom(ctx)
	if s == nil {
		return ErrNoSession
	}
	return s.Publication.Scoped(selectPublished, fn)
}
