package pages

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Content is the typed payload of a page, identified by a type tag.
type Content interface {
	Type() string
}

// ContentFactory decodes serialized content data.
type ContentFactory func(data []byte) (Content, error)

// ContentRegistry maps content type tags to factories. It is safe for
// concurrent use and normally populated once at startup.
type ContentRegistry struct {
	mu        sync.RWMutex
	factories map[string]ContentFactory
}

// NewContentRegistry creates a registry with the built-in content types.
func NewContentRegistry() *ContentRegistry {
	r := &ContentRegistry{factories: make(map[string]ContentFactory)}
	r.Register(HTMLContentType, JSONFactory[*HTMLContent]())
	return r
}

// Register adds or replaces the factory for tag.
func (r *ContentRegistry) Register(tag string, factory ContentFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[tag] = factory
}

// Types returns the registered tags in sorted order.
func (r *ContentRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Decode returns the typed content of page.
func (r *ContentRegistry) Decode(page *Page) (Content, error) {
	content, err := r.DecodeData(page.ContentType, []byte(page.ContentData))
	if err != nil && !errors.Is(err, ErrUnknownContentType) {
		return nil, &PageError{PageID: page.ID, Op: "decode_content", Err: err}
	}
	return content, err
}

// DecodeData decodes serialized content of the given type.
func (r *ContentRegistry) DecodeData(tag string, data []byte) (Content, error) {
	r.mu.RLock()
	factory, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, tag)
	}
	return factory(data)
}

// Encode stores content in the page envelope. The content type must be
// registered.
func (r *ContentRegistry) Encode(page *Page, content Content) error {
	r.mu.RLock()
	_, ok := r.factories[content.Type()]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContentType, content.Type())
	}
	data, err := json.Marshal(content)
	if err != nil {
		return &PageError{PageID: page.ID, Op: "encode_content", Err: err}
	}
	page.ContentType = content.Type()
	page.ContentData = string(data)
	return nil
}

// JSONFactory returns a factory decoding JSON into a new T. T must be a
// pointer type implementing Content.
func JSONFactory[T Content]() ContentFactory {
	return func(data []byte) (Content, error) {
		var v T
		if len(data) == 0 {
			data = []byte("{}")
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// HTMLContentType is the tag of HTMLContent.
const HTMLContentType = "html"

// HTMLContent is a page body of rich text.
type HTMLContent struct {
	Content string `json:"content"`
	Summary string `json:"summary,omitempty"`
}

// Type returns the content type tag.
func (c *HTMLContent) Type() string {
	return HTMLContentType
}
