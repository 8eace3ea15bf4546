// Package observability lets an application observe layout runs, cache
// lookups and editor commands without the library packages depending on a
// metrics or tracing backend.
//
// Hooks are registered once at startup and read by the library code:
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
//	observability.Layout().OnLayoutStart(ctx, "graphviz", len(req.Nodes))
//	// ... run the engine ...
//	observability.Layout().OnLayoutComplete(ctx, "graphviz", len(res), duration, err)
//
// Every category defaults to a no-op implementation.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from layout runs.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, engine string, nodeCount int)
	OnLayoutComplete(ctx context.Context, engine string, positioned int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache lookups.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write of size bytes.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives one event per editor command. applied is false when
// the command was a no-op because its precondition was not met.
type EditorHooks interface {
	OnCommand(ctx context.Context, command string, applied bool, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks ignores all layout events.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, string, int)                          {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks ignores all cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopEditorHooks ignores all editor events.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnCommand(context.Context, string, bool, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	editorHooks EditorHooks = NoopEditorHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers layout hooks. A nil h is ignored.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetEditorHooks registers editor hooks. A nil h is ignored.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
}

// Reset restores the no-op defaults. Tests use it to undo registrations.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	cacheHooks = NoopCacheHooks{}
	editorHooks = NoopEditorHooks{}
}
