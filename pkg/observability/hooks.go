// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about resolution passes, package installs, and index
// refreshes.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolverHooks(&myResolverHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolver().OnInstallStart(ctx, name, version)
//	// ... clone ...
//	observability.Resolver().OnInstallComplete(ctx, name, version, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolver Hooks
// =============================================================================

// ResolverHooks receives events from the dependency resolver.
type ResolverHooks interface {
	// OnPassComplete fires after each full pass over the worklist.
	// added is the number of new bindings the pass produced.
	OnPassComplete(ctx context.Context, pass, paths, added int)

	// Install events
	OnInstallStart(ctx context.Context, name, version string)
	OnInstallComplete(ctx context.Context, name, version string, duration time.Duration, err error)
}

// =============================================================================
// Index Hooks
// =============================================================================

// IndexHooks receives events from the package index.
type IndexHooks interface {
	// OnIndexFetch records a clone (cloned=true) or pull of the catalog.
	OnIndexFetch(ctx context.Context, cloned bool, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolverHooks is a no-op implementation of ResolverHooks.
type NoopResolverHooks struct{}

func (NoopResolverHooks) OnPassComplete(context.Context, int, int, int)  {}
func (NoopResolverHooks) OnInstallStart(context.Context, string, string) {}
func (NoopResolverHooks) OnInstallComplete(context.Context, string, string, time.Duration, error) {
}

// NoopIndexHooks is a no-op implementation of IndexHooks.
type NoopIndexHooks struct{}

func (NoopIndexHooks) OnIndexFetch(context.Context, bool, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolverHooks ResolverHooks = NoopResolverHooks{}
	indexHooks    IndexHooks    = NoopIndexHooks{}
	hooksMu       sync.RWMutex
)

// SetResolverHooks registers custom resolver hooks.
// This should be called once at application startup before any resolution.
func SetResolverHooks(h ResolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolverHooks = h
	}
}

// SetIndexHooks registers custom index hooks.
func SetIndexHooks(h IndexHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		indexHooks = h
	}
}

// Resolver returns the registered resolver hooks.
func Resolver() ResolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolverHooks
}

// Index returns the registered index hooks.
func Index() IndexHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return indexHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolverHooks = NoopResolverHooks{}
	indexHooks = NoopIndexHooks{}
}
