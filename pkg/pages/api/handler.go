package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-pages/pkg/pages"
)

// PageResponse is the response body for a page
type PageResponse struct {
	ID              int64      `json:"id"`
	SiteID          int64      `json:"site_id"`
	ParentID        *int64     `json:"parent_id,omitempty"`
	Title           string     `json:"title"`
	ShortTitle      string     `json:"short_title,omitempty"`
	URLTitle        string     `json:"url_title"`
	Permalink       string     `json:"permalink,omitempty"`
	URL             string     `json:"url,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	IsOnline        bool       `json:"is_online"`
	InNavigation    bool       `json:"in_navigation"`
	SortOrder       int        `json:"sort_order"`
	BrowserTitle    string     `json:"browser_title,omitempty"`
	MetaKeywords    string     `json:"meta_keywords,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	ContentType     string     `json:"content_type,omitempty"`
	LastModified    time.Time  `json:"last_modified"`
}

// PageRequest is the request body for creating or updating a page
type PageRequest struct {
	ParentID        *int64          `json:"parent_id"`
	Title           string          `json:"title"`
	ShortTitle      string          `json:"short_title"`
	URLTitle        string          `json:"url_title"`
	Permalink       string          `json:"permalink"`
	PublicationDate *time.Time      `json:"publication_date"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	IsOnline        bool            `json:"is_online"`
	InNavigation    bool            `json:"in_navigation"`
	SortOrder       int             `json:"sort_order"`
	BrowserTitle    string          `json:"browser_title"`
	MetaKeywords    string          `json:"meta_keywords"`
	MetaDescription string          `json:"meta_description"`
	ContentType     string          `json:"content_type"`
	Content         json.RawMessage `json:"content,omitempty"`
}

// URLResponse is the response body for URL lookups
type URLResponse struct {
	Slug string `json:"slug,omitempty"`
	URL  string `json:"url"`
}

// ContentResponse is the response body for decoded page content
type ContentResponse struct {
	PageID  int64         `json:"page_id"`
	Type    string        `json:"type"`
	Content pages.Content `json:"content"`
}

// PageHandler serves pages over HTTP
type PageHandler struct {
	manager *pages.PageManager
}

// NewPageHandler creates a new page handler
func NewPageHandler(manager *pages.PageManager) *PageHandler {
	return &PageHandler{manager: manager}
}

// PublicRoutes returns the read-only routes. Mount them behind Sessions
// and PublishedView.
func (h *PageHandler) PublicRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/homepage", h.GetHomepage)
	r.Get("/resolve", h.ResolveURL)
	r.Get("/pages/{ident}", h.GetPage)
	r.Get("/pages/{ident}/children", h.GetChildren)
	r.Get("/pages/{ident}/navigation", h.GetNavigation)
	r.Get("/pages/{ident}/url", h.GetURL)
	r.Get("/pages/{ident}/content", h.GetContent)

	return r
}

// AdminRoutes returns the write routes. Mount them behind Sessions and an
// authentication middleware; they run unfiltered.
func (h *PageHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/pages", h.CreatePage)
	r.Get("/pages/{ident}", h.GetPage)
	r.Get("/pages/{ident}/tree", h.GetTree)
	r.Put("/pages/{id}", h.UpdatePage)
	r.Delete("/pages/{id}", h.DeletePage)

	return r
}

// GetHomepage returns the root page of the current site
func (h *PageHandler) GetHomepage(w http.ResponseWriter, r *http.Request) {
	page, err := h.manager.Homepage(r.Context())
	if err != nil {
		slog.Error("Failed to get homepage", "error", err)
		writeError(w, r, err)
		return
	}
	h.renderPage(w, r, page)
}

// ResolveURL converts a slug (id, permalink or path) into a URL
func (h *PageHandler) ResolveURL(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		writeError(w, r, errBadRequest("slug is required"))
		return
	}
	url, err := h.manager.ResolveURL(r.Context(), slug)
	if err != nil {
		slog.Error("Failed to resolve slug", "slug", slug, "error", err)
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, URLResponse{Slug: slug, URL: url})
}

// GetPage returns the page named by an id or permalink
func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParam(w, r)
	if !ok {
		return
	}
	h.renderPage(w, r, page)
}

// GetChildren returns the direct children of a page
func (h *PageHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParam(w, r)
	if !ok {
		return
	}
	children, err := h.manager.Children(r.Context(), page)
	if err != nil {
		slog.Error("Failed to list children", "page_id", page.ID, "error", err)
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, toResponses(children))
}

// GetNavigation returns the published children shown in navigation
func (h *PageHandler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParam(w, r)
	if !ok {
		return
	}
	nav, err := h.manager.Navigation(r.Context(), page)
	if err != nil {
		slog.Error("Failed to list navigation", "page_id", page.ID, "error", err)
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, toResponses(nav))
}

// GetTree returns every descendant of a page in pre-order
func (h *PageHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParam(w, r)
	if !ok {
		return
	}
	all, err := h.manager.AllChildren(r.Context(), page)
	if err != nil {
		slog.Error("Failed to walk page tree", "page_id", page.ID, "error", err)
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, toResponses(all))
}

// GetURL returns the absolute URL of a page
func (h *PageHandler) GetURL(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParam(w, r)
	if !ok {
		return
	}
	url, err := h.manager.AbsoluteURL(r.Context(), page)
	if err != nil {
		slog.Error("Failed to build page URL", "page_id", page.ID, "error", err)
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, URLResponse{URL: url})
}

// GetContent returns the decoded content of a page
func (h *PageHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParam(w, r)
	if !ok {
		return
	}
	content, err := h.manager.Content(page)
	if err != nil {
		slog.Error("Failed to decode page content", "page_id", page.ID, "error", err)
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ContentResponse{PageID: page.ID, Type: page.ContentType, Content: content})
}

// CreatePage creates a new page
func (h *PageHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		slog.Error("Invalid request body", "error", err)
		writeError(w, r, errBadRequest(err.Error()))
		return
	}

	page := &pages.Page{}
	if err := h.apply(page, req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.manager.Save(r.Context(), page); err != nil {
		slog.Error("Failed to create page", "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Page created", "page_id", page.ID)
	render.Status(r, http.StatusCreated)
	h.renderPage(w, r, page)
}

// UpdatePage replaces the editable fields of a page
func (h *PageHandler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req PageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		slog.Error("Invalid request body", "error", err)
		writeError(w, r, errBadRequest(err.Error()))
		return
	}

	existing, err := h.manager.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get page", "page_id", id, "error", err)
		writeError(w, r, err)
		return
	}
	page := existing.Clone()
	if err := h.apply(page, req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.manager.Save(r.Context(), page); err != nil {
		slog.Error("Failed to update page", "page_id", id, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Page updated", "page_id", id)
	h.renderPage(w, r, page)
}

// DeletePage deletes a page and its descendants
func (h *PageHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	page, err := h.manager.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get page", "page_id", id, "error", err)
		writeError(w, r, err)
		return
	}
	if err := h.manager.Delete(r.Context(), page); err != nil {
		slog.Error("Failed to delete page", "page_id", id, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Page deleted", "page_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PageHandler) apply(page *pages.Page, req PageRequest) error {
	page.ParentID = req.ParentID
	page.Title = req.Title
	page.ShortTitle = req.ShortTitle
	page.URLTitle = req.URLTitle
	page.Permalink = req.Permalink
	page.PublicationDate = req.PublicationDate
	page.ExpiryDate = req.ExpiryDate
	page.IsOnline = req.IsOnline
	page.InNavigation = req.InNavigation
	page.SortOrder = req.SortOrder
	page.BrowserTitle = req.BrowserTitle
	page.MetaKeywords = req.MetaKeywords
	page.MetaDescription = req.MetaDescription

	if req.ContentType == "" {
		page.ContentType = ""
		page.ContentData = ""
		return nil
	}
	content, err := h.manager.Registry().DecodeData(req.ContentType, req.Content)
	if err != nil {
		return err
	}
	return h.manager.Registry().Encode(page, content)
}

func (h *PageHandler) pageParam(w http.ResponseWriter, r *http.Request) (*pages.Page, bool) {
	ident := chi.URLParam(r, "ident")
	page, err := h.manager.Resolve(r.Context(), pages.ParseIdentifier(ident))
	if err != nil {
		slog.Warn("Failed to resolve page", "ident", ident, "error", err)
		writeError(w, r, err)
		return nil, false
	}
	return page, true
}

func (h *PageHandler) renderPage(w http.ResponseWriter, r *http.Request, page *pages.Page) {
	resp := toResponse(page)
	url, err := h.manager.AbsoluteURL(r.Context(), page)
	if err != nil {
		slog.Warn("Failed to build page URL", "page_id", page.ID, "error", err)
	} else {
		resp.URL = url
	}
	render.JSON(w, r, resp)
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		slog.Error("Invalid page ID", "page_id", idStr, "error", err)
		writeError(w, r, errBadRequest("invalid page id"))
		return 0, false
	}
	return id, true
}

func toResponse(p *pages.Page) PageResponse {
	return PageResponse{
		ID:              p.ID,
		SiteID:          p.SiteID,
		ParentID:        p.ParentID,
		Title:           p.Title,
		ShortTitle:      p.ShortTitle,
		URLTitle:        p.URLTitle,
		Permalink:       p.Permalink,
		PublicationDate: p.PublicationDate,
		ExpiryDate:      p.ExpiryDate,
		IsOnline:        p.IsOnline,
		InNavigation:    p.InNavigation,
		SortOrder:       p.SortOrder,
		BrowserTitle:    p.BrowserTitle,
		MetaKeywords:    p.MetaKeywords,
		MetaDescription: p.MetaDescription,
		ContentType:     p.ContentType,
		LastModified:    p.LastModified,
	}
}

func toResponses(list []*pages.Page) []PageResponse {
	out := make([]PageResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	return out
}

var errRequest = errors.New("bad request")

func errBadRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return errRequest }
