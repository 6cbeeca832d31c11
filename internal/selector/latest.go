package selector

import (
	"context"
	"sync"
	"sync/atomic"

	"estate_reviews/internal/domain"
)

// Latest hands out request tickets; only the most recent ticket is current.
type Latest struct{ gen atomic.Uint64 }

type Ticket struct {
	l *Latest
	n uint64
}

func (l *Latest) Begin() Ticket { return Ticket{l: l, n: l.gen.Add(1)} }

// Current reports whether no newer request was issued after this one.
func (t Ticket) Current() bool { return t.l != nil && t.l.gen.Load() == t.n }

// FeedLoader fetches data for the selected triple and keeps only the result
// of the most recently issued request; an earlier request that resolves later
// is discarded.
type FeedLoader[T any] struct {
	fetch  func(ctx context.Context, t domain.Triple) (T, error)
	latest Latest

	mu     sync.Mutex
	last   Snapshot[T]
	loaded bool
}

// Snapshot is one applied fetch result.
type Snapshot[T any] struct {
	Triple domain.Triple
	Value  T
	Err    error
}

func NewFeedLoader[T any](fetch func(ctx context.Context, t domain.Triple) (T, error)) *FeedLoader[T] {
	return &FeedLoader[T]{fetch: fetch}
}

// Load fetches t and reports whether its result was applied.
func (f *FeedLoader[T]) Load(ctx context.Context, t domain.Triple) (bool, error) {
	ticket := f.latest.Begin()
	v, err := f.fetch(ctx, t)
	f.mu.Lock()
	defer f.mu.Unlock()
	if !ticket.Current() {
		return false, nil
	}
	f.last, f.loaded = Snapshot[T]{Triple: t, Value: v, Err: err}, true
	return true, err
}

// Result returns the last applied result.
func (f *FeedLoader[T]) Result() (Snapshot[T], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.loaded
}
