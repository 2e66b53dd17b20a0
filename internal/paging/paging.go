// Package paging implements keyset (cursor) pagination over any record set
// with a unique, totally-ordered string key. Pages are bounded by strict key
// comparison rather than offsets, so they stay stable while rows are inserted
// or deleted elsewhere in the set, and a deleted boundary row still partitions
// the scan correctly.
package paging

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/opencatalog/metadata-service/internal/cursor"
)

// ErrInvalidLimit rejects non-positive page sizes before any store call.
var ErrInvalidLimit = errors.New("limit must be >= 1")

// Store is the narrow query surface the engine needs from storage.
// FindAfter returns up to limit rows with key > afterKey in ascending key
// order; FindBefore returns up to limit rows with key < beforeKey in
// DESCENDING key order (the rows nearest the boundary). An empty prefix means
// an unscoped listing; a non-empty prefix restricts rows to keys under
// "prefix.".
type Store[T any] interface {
	FindAfter(ctx context.Context, prefix string, limit int, afterKey string) ([]T, error)
	FindBefore(ctx context.Context, prefix string, limit int, beforeKey string) ([]T, error)
	CountByPrefix(ctx context.Context, prefix string) (int, error)
}

// Page is one contiguous window of the scoped record set, always in ascending
// key order. Before/After are opaque cursors for the adjacent windows, nil
// when no page exists in that direction. Total is the full scoped count,
// independent of the window.
type Page[T any] struct {
	Items  []T     `json:"items"`
	Before *string `json:"before"`
	After  *string `json:"after"`
	Total  int     `json:"total"`
}

// Engine computes forward and backward pages. It never mutates storage; each
// call issues one window query plus one scoped count.
type Engine[T any] struct {
	store Store[T]
	codec cursor.Codec
	key   func(T) string
}

// New builds an engine over a store. key extracts the record's sort key
// (the fully-qualified name for catalog entities).
func New[T any](store Store[T], codec cursor.Codec, key func(T) string) *Engine[T] {
	return &Engine[T]{store: store, codec: codec, key: key}
}

// ListAfter returns the page following the given cursor; an empty cursor
// requests the first page. One extra row is fetched to detect whether a next
// page exists without a second query.
func (e *Engine[T]) ListAfter(ctx context.Context, prefix string, limit int, after string) (Page[T], error) {
	if limit < 1 {
		return Page[T]{}, ErrInvalidLimit
	}

	afterKey := ""
	if after != "" {
		key, err := e.codec.Decode(after)
		if err != nil {
			return Page[T]{}, err
		}
		afterKey = key
	}

	items, err := e.store.FindAfter(ctx, prefix, limit+1, afterKey)
	if err != nil {
		return Page[T]{}, fmt.Errorf("find after %q: %w", prefix, err)
	}
	total, err := e.store.CountByPrefix(ctx, prefix)
	if err != nil {
		return Page[T]{}, fmt.Errorf("count %q: %w", prefix, err)
	}

	page := Page[T]{Total: total}
	if len(items) > limit { // extra row fetched: a next page exists
		items = items[:limit]
		page.After = e.token(items[limit-1])
	}
	// On the true first page there is nothing before; otherwise the first row
	// of this window is the boundary a backward scan resumes from.
	if after != "" && len(items) > 0 {
		page.Before = e.token(items[0])
	}
	page.Items = items
	return page, nil
}

// ListBefore returns the page preceding the given cursor. The store fetches
// the limit+1 keys nearest the boundary (descending) and the result is
// re-sorted ascending before any cursor is derived.
func (e *Engine[T]) ListBefore(ctx context.Context, prefix string, limit int, before string) (Page[T], error) {
	if limit < 1 {
		return Page[T]{}, ErrInvalidLimit
	}
	beforeKey, err := e.codec.Decode(before)
	if err != nil {
		return Page[T]{}, err
	}

	items, err := e.store.FindBefore(ctx, prefix, limit+1, beforeKey)
	if err != nil {
		return Page[T]{}, fmt.Errorf("find before %q: %w", prefix, err)
	}
	total, err := e.store.CountByPrefix(ctx, prefix)
	if err != nil {
		return Page[T]{}, fmt.Errorf("count %q: %w", prefix, err)
	}

	sort.Slice(items, func(i, j int) bool { return e.key(items[i]) < e.key(items[j]) })

	page := Page[T]{Total: total}
	if len(items) > limit { // extra row fetched: a page exists farther back
		items = items[1:]
		page.Before = e.token(items[0])
	}
	// A before-cursor implies rows existed past the boundary, so the forward
	// cursor is set whenever this page is non-empty.
	if len(items) > 0 {
		page.After = e.token(items[len(items)-1])
	}
	page.Items = items
	return page, nil
}

func (e *Engine[T]) token(item T) *string {
	t := e.codec.Encode(e.key(item))
	return &t
}
