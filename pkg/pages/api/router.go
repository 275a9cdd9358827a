package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/tendant/simple-pages/pkg/pages"
)

// RouterConfig assembles the page API
type RouterConfig struct {
	// Sessions configures the per-request page session
	Sessions pages.SessionOptions

	// JWTAuth verifies bearer tokens; staff tokens may request preview.
	// Without it every request is anonymous.
	JWTAuth *jwtauth.JWTAuth

	// Admin guards the /admin routes. Admin routes are not mounted when nil.
	Admin func(http.Handler) http.Handler
}

// NewRouter returns the page API: public routes filtered to published
// pages and, when configured, unfiltered admin routes under /admin.
func NewRouter(manager *pages.PageManager, cfg RouterConfig) chi.Router {
	h := NewPageHandler(manager)
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(SiteMiddleware)
	r.Use(Sessions(cfg.Sessions))

	principal := PrincipalFunc(Anonymous)
	if cfg.JWTAuth != nil {
		r.Use(jwtauth.Verifier(cfg.JWTAuth))
		principal = JWTPrincipal
	}

	if cfg.Admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(cfg.Admin)
			r.Mount("/", h.AdminRoutes())
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(PublishedView(principal))
		r.Mount("/", h.PublicRoutes())
	})

	return r
}
