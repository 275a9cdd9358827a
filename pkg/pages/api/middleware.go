package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/tendant/simple-pages/pkg/pages"
)

// Context keys for middleware
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

// SiteHeader names the request header that selects a site.
const SiteHeader = "X-Site-ID"

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RecoveryMiddleware recovers from panics and returns 500 error
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				requestID, _ := r.Context().Value(RequestIDKey).(string)
				slog.Error("PANIC", "request_id", requestID, "error", err)

				writeError(w, r, errPanic)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type panicError struct{}

func (panicError) Error() string { return "an internal server error occurred" }

var errPanic = panicError{}

// Sessions starts a fresh page session for every request, so the page
// cache never outlives the request that filled it.
func Sessions(opts pages.SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := pages.NewSession(opts)
			next.ServeHTTP(w, r.WithContext(pages.WithSession(r.Context(), s)))

			slog.Debug("Page session finished",
				"session_id", s.ID.String(),
				"cached_pages", s.Cache.Len(),
				"path", r.URL.Path)
		})
	}
}

// PrincipalFunc returns the user making a request
type PrincipalFunc func(r *http.Request) pages.Principal

// Anonymous treats every request as unauthenticated
func Anonymous(r *http.Request) pages.Principal {
	return pages.AnonymousPrincipal{}
}

// PublishedView filters the request to published pages unless the
// request asks for preview and the principal is allowed to use it. It must
// run inside Sessions.
func PublishedView(principal PrincipalFunc) func(http.Handler) http.Handler {
	if principal == nil {
		principal = Anonymous
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := pages.SessionFrom(r.Context())
			if s == nil {
				slog.Error("Published view outside a page session", "path", r.URL.Path)
				writeError(w, r, pages.ErrNoSession)
				return
			}

			preview := s.Publication.PreviewRequested(r.URL.Query(), principal(r))
			if preview {
				slog.Info("Preview requested", "session_id", s.ID.String(), "path", r.URL.Path)
			}
			err := s.Publication.Scoped(!preview, func() error {
				next.ServeHTTP(w, r)
				return nil
			})
			if err != nil {
				// The response is already written; the handler left the stack unbalanced.
				slog.Error("Publication block ended unbalanced",
					"session_id", s.ID.String(),
					"path", r.URL.Path,
					"error", err)
			}
		})
	}
}

// SiteMiddleware places the site named by the X-Site-ID header in the
// request context. Requests without the header use the resolver default.
func SiteMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(SiteHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		siteID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || siteID <= 0 {
			writeError(w, r, errBadRequest("invalid "+SiteHeader+" header"))
			return
		}
		next.ServeHTTP(w, r.WithContext(pages.WithSite(r.Context(), siteID)))
	})
}

// JWTPrincipal reads the principal from a token verified by
// jwtauth.Verifier. Tokens carry "sub", "staff" and "active" claims; a
// missing or invalid token is anonymous.
func JWTPrincipal(r *http.Request) pages.Principal {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return pages.AnonymousPrincipal{}
	}
	user := pages.User{Subject: token.Subject(), Authenticated: true, Active: true}
	if staff, ok := claims["staff"].(bool); ok {
		user.Staff = staff
	}
	if active, ok := claims["active"].(bool); ok {
		user.Active = active
	}
	return user
}

// NewJWTAuth creates the HS256 verifier for staff tokens
func NewJWTAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}
