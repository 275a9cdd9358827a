package pages

import (
	"context"
)

// StaticSite resolves every request to the same site.
type StaticSite int64

// CurrentSite returns the configured site id.
func (s StaticSite) CurrentSite(ctx context.Context) (int64, error) {
	return int64(s), nil
}

// ContextSite resolves the site placed in the context by WithSite, falling
// back to Default.
type ContextSite struct {
	Default int64
}

// CurrentSite returns the site carried by ctx or the default.
func (s ContextSite) CurrentSite(ctx context.Context) (int64, error) {
	if id, ok := ctx.Value(siteKey).(int64); ok {
		return id, nil
	}
	return s.Default, nil
}

// WithSite returns a copy of ctx carrying the site id.
func WithSite(ctx context.Context, siteID int64) context.Context {
	return context.WithValue(ctx, siteKey, siteID)
}
