// Package observability provides hooks for metrics, tracing, and logging.
//
// Library packages emit events through the registered hooks; the binary
// decides where they go. Nothing here depends on a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRelaxHooks(&myRelaxHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// The pipeline calls them around each stage:
//
//	observability.Relax().OnRunStart(ctx, points, passes)
//	// ... relax ...
//	observability.Relax().OnRunComplete(ctx, passes, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Relax Hooks
// =============================================================================

// RelaxHooks receives events from the relaxation loop.
type RelaxHooks interface {
	// OnRunStart is called once before the first pass.
	OnRunStart(ctx context.Context, points, passes int)

	// OnPassComplete is called after every committed pass with the largest
	// point displacement in diagram units.
	OnPassComplete(ctx context.Context, pass int, maxShift float64, duration time.Duration)

	// OnRunComplete is called once when the loop ends, successfully or not.
	OnRunComplete(ctx context.Context, passes int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache lookups.
type CacheHooks interface {
	// OnCacheHit records a cache hit. keyType is "relax" or "artifact".
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write of size bytes.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from output rendering.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRelaxHooks is a no-op implementation of RelaxHooks.
type NoopRelaxHooks struct{}

func (NoopRelaxHooks) OnRunStart(context.Context, int, int)                        {}
func (NoopRelaxHooks) OnPassComplete(context.Context, int, float64, time.Duration) {}
func (NoopRelaxHooks) OnRunComplete(context.Context, int, time.Duration, error)    {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopRenderHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	relaxHooks  RelaxHooks  = NoopRelaxHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	renderHooks RenderHooks = NoopRenderHooks{}
	hooksMu     sync.RWMutex
)

// SetRelaxHooks registers custom relaxation hooks. Nil is ignored.
func SetRelaxHooks(h RelaxHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		relaxHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetRenderHooks registers custom render hooks. Nil is ignored.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// Relax returns the registered relaxation hooks.
func Relax() RelaxHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return relaxHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	relaxHooks = NoopRelaxHooks{}
	cacheHooks = NoopCacheHooks{}
	renderHooks = NoopRenderHooks{}
}
