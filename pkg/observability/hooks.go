// Package observability defines instrumentation hooks for the manifest
// fetcher, the manifest store and the registry HTTP client.
//
// Library packages emit events through [Fetch], [Cache] and [HTTP]; they
// never import a metrics backend. main installs real implementations at
// startup (internal/metrics provides the Prometheus one). Until then every
// hook is a no-op.
//
//	observability.Fetch().OnFetchStart(ctx, name)
//	m, err := fetch(ctx, name)
//	observability.Fetch().OnFetchComplete(ctx, name, time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Fetch Hooks
// =============================================================================

// FetchHooks receives events from the manifest fetcher.
type FetchHooks interface {
	// OnFetchStart records the start of an upstream registry fetch.
	OnFetchStart(ctx context.Context, name string)

	// OnFetchComplete records the end of an upstream fetch.
	OnFetchComplete(ctx context.Context, name string, duration time.Duration, err error)

	// OnCoalesced records a caller that joined an in-flight fetch.
	OnCoalesced(ctx context.Context, name string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the manifest store.
// kind is "manifest" or "error" for the stored entry type.
type CacheHooks interface {
	// OnCacheHit records a fresh entry served from the store.
	OnCacheHit(ctx context.Context, kind string)

	// OnCacheMiss records a lookup that found nothing usable.
	OnCacheMiss(ctx context.Context)

	// OnCacheExpired records a stale entry that was deleted.
	OnCacheExpired(ctx context.Context, kind string)

	// OnCacheSet records a store write.
	OnCacheSet(ctx context.Context, kind string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout, open breaker).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopFetchHooks is a no-op implementation of FetchHooks.
type NoopFetchHooks struct{}

func (NoopFetchHooks) OnFetchStart(context.Context, string)                        {}
func (NoopFetchHooks) OnFetchComplete(context.Context, string, time.Duration, error) {}
func (NoopFetchHooks) OnCoalesced(context.Context, string)                         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)     {}
func (NoopCacheHooks) OnCacheMiss(context.Context)            {}
func (NoopCacheHooks) OnCacheExpired(context.Context, string) {}
func (NoopCacheHooks) OnCacheSet(context.Context, string)     {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Registry
// =============================================================================

// hookSet is an immutable snapshot of the installed hooks.
type hookSet struct {
	fetch FetchHooks
	cache CacheHooks
	http  HTTPHooks
}

var installed atomic.Pointer[hookSet]

func init() { Reset() }

// swap installs a modified copy of the current hook set.
func swap(modify func(*hookSet)) {
	for {
		old := installed.Load()
		next := *old
		modify(&next)
		if installed.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetFetchHooks installs h as the fetch hooks. nil is ignored.
func SetFetchHooks(h FetchHooks) {
	if h != nil {
		swap(func(s *hookSet) { s.fetch = h })
	}
}

// SetCacheHooks installs h as the cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		swap(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks installs h as the HTTP hooks. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		swap(func(s *hookSet) { s.http = h })
	}
}

// Fetch returns the installed fetch hooks.
func Fetch() FetchHooks { return installed.Load().fetch }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return installed.Load().cache }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return installed.Load().http }

// Reset restores the no-op hooks. Tests call it to undo an install.
func Reset() {
	installed.Store(&hookSet{
		fetch: NoopFetchHooks{},
		cache: NoopCacheHooks{},
		http:  NoopHTTPHooks{},
	})
}
