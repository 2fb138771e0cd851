// Package registry resolves package names to manifests. It serves fresh
// entries from the store, coalesces concurrent requests for the same name
// into a single upstream fetch, and caches failures as well as successes.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/manifest"
	"github.com/matzehuels/npmmeta/pkg/observability"
)

// Default freshness windows.
const (
	DefaultCacheTimeout      = 15 * time.Minute
	DefaultCacheTimeoutForce = 30 * time.Second
	DefaultFetchTimeout      = 30 * time.Second
)

// Source downloads a manifest from the registry.
type Source interface {
	FetchManifest(ctx context.Context, name string) (*manifest.Manifest, error)
}

// Fetcher implements manifest resolution on top of a [Source] and a
// [manifest.Store].
type Fetcher struct {
	source   Source
	store    *manifest.Store
	inflight *Inflight
	logger   *log.Logger
	now      func() time.Time

	cacheTimeout      time.Duration
	cacheTimeoutForce time.Duration
	fetchTimeout      time.Duration
}

// Option configures a [Fetcher].
type Option func(*Fetcher)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithCacheTimeouts sets the freshness window for normal and forced
// requests. Non-positive values keep the defaults.
func WithCacheTimeouts(normal, force time.Duration) Option {
	return func(f *Fetcher) {
		if normal > 0 {
			f.cacheTimeout = normal
		}
		if force > 0 {
			f.cacheTimeoutForce = force
		}
	}
}

// WithFetchTimeout bounds a single upstream fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.fetchTimeout = d
		}
	}
}

// NewFetcher creates a fetcher. A nil store disables persistence.
func NewFetcher(source Source, store *manifest.Store, opts ...Option) *Fetcher {
	if store == nil {
		store = manifest.NewStore(nil, 0)
	}
	f := &Fetcher{
		source:            source,
		store:             store,
		inflight:          NewInflight(),
		logger:            log.Default(),
		now:               time.Now,
		cacheTimeout:      DefaultCacheTimeout,
		cacheTimeoutForce: DefaultCacheTimeoutForce,
		fetchTimeout:      DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Inflight returns the fetcher's in-flight registry.
func (f *Fetcher) Inflight() *Inflight { return f.inflight }

// ResolveManifest returns the manifest for name.
//
// A running fetch for the same name is joined. Otherwise a stored entry
// younger than the freshness window is served, and a stored failure is
// replayed as an UPSTREAM_ERROR without touching the network. force narrows
// the window rather than skipping the store. Anything else triggers one
// upstream fetch whose outcome, success or failure, is stored.
func (f *Fetcher) ResolveManifest(ctx context.Context, name string, force bool) (*manifest.Manifest, error) {
	if c, ok := f.inflight.lookup(name); ok {
		return f.join(ctx, name, c)
	}

	timeout := f.cacheTimeout
	if force {
		timeout = f.cacheTimeoutForce
	}
	if m, ok, err := f.fromStore(ctx, name, timeout); ok {
		return m, err
	}

	c, owner := f.inflight.claim(name)
	if !owner {
		return f.join(ctx, name, c)
	}
	go f.run(ctx, name, c)
	return c.wait(ctx, name)
}

func (f *Fetcher) join(ctx context.Context, name string, c *call) (*manifest.Manifest, error) {
	f.logger.Debug("joining in-flight fetch", "name", name)
	observability.Fetch().OnCoalesced(ctx, name)
	return c.wait(ctx, name)
}

// fromStore serves a fresh stored entry. ok is false when the caller has to
// fetch. Store failures are logged and treated as misses.
func (f *Fetcher) fromStore(ctx context.Context, name string, timeout time.Duration) (*manifest.Manifest, bool, error) {
	hooks := observability.Cache()

	e, found, err := f.store.Get(ctx, name)
	if err != nil {
		f.logger.Warn("reading stored manifest", "name", name, "err", err)
		found = false
	}
	if !found {
		hooks.OnCacheMiss(ctx)
		return nil, false, nil
	}

	kind := entryKind(e)
	if e.Fresh(f.now(), timeout) {
		hooks.OnCacheHit(ctx, kind)
		if e.Failure != nil {
			return nil, true, errors.Upstream(e.Failure.Error)
		}
		return e.Manifest, true, nil
	}

	hooks.OnCacheExpired(ctx, kind)
	if err := f.store.Delete(ctx, name); err != nil {
		f.logger.Warn("deleting expired manifest", "name", name, "err", err)
	}
	return nil, false, nil
}

// run performs the upstream fetch for a claimed call. It is detached from
// the cancellation of the caller that started it, since other callers may
// be waiting on the same result.
func (f *Fetcher) run(parent context.Context, name string, c *call) {
	defer func() {
		f.inflight.release(name, c)
		close(c.done)
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), f.fetchTimeout)
	defer cancel()

	f.logger.Info("fetching package", "name", name)
	hooks := observability.Fetch()
	hooks.OnFetchStart(ctx, name)
	start := time.Now()

	m, err := f.download(ctx, name)
	hooks.OnFetchComplete(ctx, name, time.Since(start), err)

	if err != nil {
		msg := errors.UserMessage(err)
		f.logger.Warn("fetch failed", "name", name, "err", msg)
		f.persist(ctx, name, manifest.Entry{Failure: &manifest.Failure{Error: msg, LastSynced: f.now().UnixMilli()}})
		c.err = errors.Upstream(msg)
		return
	}

	f.persist(ctx, name, manifest.Entry{Manifest: m})
	c.m = m
}

// download calls the source, turning a panic into an error.
func (f *Fetcher) download(ctx context.Context, name string) (m *manifest.Manifest, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("fetching %s: panic: %v", name, r)
		}
	}()
	m, err = f.source.FetchManifest(ctx, name)
	if err == nil && m == nil {
		err = fmt.Errorf("fetching %s: empty manifest", name)
	}
	return m, err
}

func (f *Fetcher) persist(ctx context.Context, name string, e manifest.Entry) {
	if err := f.store.Set(ctx, name, e); err != nil {
		f.logger.Warn("storing manifest", "name", name, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, entryKind(e))
}

func entryKind(e manifest.Entry) string {
	if e.Failure != nil {
		return "error"
	}
	return "manifest"
}
