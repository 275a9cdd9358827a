package pages

import (
	"context"
	"log/slog"
)

// Hook system allows extending page lifecycle behavior without modifying
// the managers. Before hooks run ahead of the store write and may veto it.
// After hooks run once the session cache reflects the write.

// Hooks defines all available lifecycle hooks
type Hooks struct {
	BeforeSave   []BeforeSaveHook
	AfterSave    []AfterSaveHook
	BeforeDelete []BeforeDeleteHook
	AfterDelete  []AfterDeleteHook

	// Error hooks
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{} // Custom metadata passed between hooks
	StopChain bool                   // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// BeforeSaveHook is called before a page is written; an error aborts the save
type BeforeSaveHook func(hctx *HookContext, page *Page) error

// AfterSaveHook is called after a page is created or updated
type AfterSaveHook func(hctx *HookContext, page *Page) error

// BeforeDeleteHook is called before a page is deleted; an error aborts the delete
type BeforeDeleteHook func(hctx *HookContext, page *Page) error

// AfterDeleteHook is called after a page is deleted
type AfterDeleteHook func(hctx *HookContext, page *Page) error

// ErrorHook is called when a write fails
type ErrorHook func(hctx *HookContext, operation string, err error)

func runPageHooks[H ~func(*HookContext, *Page) error](ctx context.Context, hooks []H, page *Page) error {
	if len(hooks) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range hooks {
		if err := hook(hctx, page); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeBeforeSave(ctx context.Context, page *Page) error {
	return runPageHooks(ctx, h.BeforeSave, page)
}

func (h *Hooks) executeAfterSave(ctx context.Context, page *Page) error {
	return runPageHooks(ctx, h.AfterSave, page)
}

func (h *Hooks) executeBeforeDelete(ctx context.Context, page *Page) error {
	return runPageHooks(ctx, h.BeforeDelete, page)
}

func (h *Hooks) executeAfterDelete(ctx context.Context, page *Page) error {
	return runPageHooks(ctx, h.AfterDelete, page)
}

// executeOnError runs all OnError hooks
func (h *Hooks) executeOnError(ctx context.Context, operation string, err error) {
	if len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}

// LoggingHooks logs page writes and failures
func LoggingHooks(logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{
		AfterSave: []AfterSaveHook{
			func(hctx *HookContext, page *Page) error {
				logger.Info("Page saved", "page_id", page.ID, "permalink", page.Permalink)
				return nil
			},
		},
		AfterDelete: []AfterDeleteHook{
			func(hctx *HookContext, page *Page) error {
				logger.Info("Page deleted", "page_id", page.ID)
				return nil
			},
		},
		OnError: []ErrorHook{
			func(hctx *HookContext, operation string, err error) {
				logger.Error("Page operation failed", "operation", operation, "error", err)
			},
		},
	}
}
