// Package batch runs one resolution per specifier of a "+"-separated batch
// and collects the results in request order.
//
// A failing item never fails its siblings: it is replaced by an [ItemError]
// placeholder carrying the raw segment and the failure message. Callers that
// prefer all-or-nothing semantics set [Options.ThrowOnError].
package batch

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/spec"
)

// Handler resolves a single parsed specifier.
type Handler[T any] func(ctx context.Context, p spec.Parsed) (T, error)

// Options controls [Run].
type Options struct {
	// ThrowOnError fails the whole batch with the first item error, by index.
	ThrowOnError bool
}

// ItemError is the placeholder returned in place of a failed item.
type ItemError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Item is one slot of a batch: either a value or an error placeholder.
type Item[T any] struct {
	Value T
	Err   *ItemError

	cause error
}

// Failed reports whether the item holds an error placeholder.
func (i Item[T]) Failed() bool { return i.Err != nil }

// MarshalJSON encodes the value, or the {name, error} placeholder.
func (i Item[T]) MarshalJSON() ([]byte, error) {
	if i.Err != nil {
		return json.Marshal(i.Err)
	}
	return json.Marshal(i.Value)
}

// Result holds the items of a batch in request order.
type Result[T any] struct {
	Items []Item[T]
}

// Single returns the only item when exactly one specifier was supplied.
func (r Result[T]) Single() (Item[T], bool) {
	if len(r.Items) != 1 {
		return Item[T]{}, false
	}
	return r.Items[0], true
}

// MarshalJSON encodes a single-item batch as the bare item and any other
// batch as an array.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if item, ok := r.Single(); ok {
		return json.Marshal(item)
	}
	return json.Marshal(r.Items)
}

// Run splits raw into specifiers, parses each and runs handler concurrently
// for every one that parsed.
func Run[T any](ctx context.Context, raw string, opts Options, handler Handler[T]) (Result[T], error) {
	segments := spec.Split(raw)
	if len(segments) == 0 {
		return Result[T]{}, errors.InvalidSpecifier(raw, "no package specifiers")
	}

	items := make([]Item[T], len(segments))
	var wg sync.WaitGroup

	for i, segment := range segments {
		p, err := spec.Parse(segment)
		if err != nil {
			items[i] = failed[T](segment, err)
			continue
		}

		wg.Add(1)
		go func(i int, p spec.Parsed) {
			defer wg.Done()
			items[i] = runOne(ctx, p, handler)
		}(i, p)
	}
	wg.Wait()

	if opts.ThrowOnError {
		for _, item := range items {
			if item.Failed() {
				return Result[T]{}, errors.BatchFailed(item.cause)
			}
		}
	}
	return Result[T]{Items: items}, nil
}

func runOne[T any](ctx context.Context, p spec.Parsed, handler Handler[T]) (item Item[T]) {
	defer func() {
		if r := recover(); r != nil {
			item = failed[T](p.Raw, errors.New(errors.ErrCodeInternal, "%v", r))
		}
	}()

	v, err := handler(ctx, p)
	if err != nil {
		return failed[T](p.Raw, err)
	}
	return Item[T]{Value: v}
}

func failed[T any](name string, err error) Item[T] {
	return Item[T]{
		Err:   &ItemError{Name: name, Error: errors.UserMessage(err)},
		cause: err,
	}
}
