package registry

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/manifest"
)

// call is one upstream fetch shared by every caller that asked for the same
// package while it was running. m and err are written once, before done is
// closed.
type call struct {
	done chan struct{}
	m    *manifest.Manifest
	err  error
}

func (c *call) wait(ctx context.Context, name string) (*manifest.Manifest, error) {
	select {
	case <-c.done:
		return c.m, c.err
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "waiting for %s", name)
	}
}

// Inflight tracks the fetches currently running, at most one per package
// name.
type Inflight struct {
	calls *xsync.MapOf[string, *call]
}

// NewInflight creates an empty registry.
func NewInflight() *Inflight {
	return &Inflight{calls: xsync.NewMapOf[string, *call]()}
}

// lookup returns the running call for name, if any.
func (r *Inflight) lookup(name string) (*call, bool) {
	return r.calls.Load(name)
}

// claim registers a new call for name unless one is already running.
// owner reports whether the returned call is the caller's to run.
func (r *Inflight) claim(name string) (c *call, owner bool) {
	fresh := &call{done: make(chan struct{})}
	c, loaded := r.calls.LoadOrStore(name, fresh)
	return c, !loaded
}

// release removes c from the registry. A call that has already been replaced
// is left alone.
func (r *Inflight) release(name string, c *call) {
	r.calls.Compute(name, func(old *call, loaded bool) (*call, bool) {
		return old, !loaded || old == c
	})
}

// Len returns the number of running fetches.
func (r *Inflight) Len() int {
	return r.calls.Size()
}
