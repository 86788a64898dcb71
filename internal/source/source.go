// Package source defines how a view obtains its data: a single read, or a
// live subscription that pushes a fresh snapshot after every change.
package source

import (
	"context"
	"sync"

	"workspots/internal/changefeed"
)

type OneShot[T any] interface {
	Fetch(ctx context.Context) ([]T, error)
}

type Subscribed[T any] interface {
	// Subscribe delivers the current snapshot, then a new one after each
	// change, until ctx ends or cancel is called. Callbacks run on a single
	// goroutine.
	Subscribe(ctx context.Context, onSnapshot func([]T), onError func(error)) (cancel func(), err error)
}

// FetchFunc adapts a query function to OneShot.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

func (f FetchFunc[T]) Fetch(ctx context.Context) ([]T, error) { return f(ctx) }

// QuerySubscription re-runs a query whenever the change feed reports a write
// to its collection.
type QuerySubscription[T any] struct {
	feed       changefeed.Broker
	collection string
	query      FetchFunc[T]
}

func NewQuerySubscription[T any](feed changefeed.Broker, collection string, query FetchFunc[T]) *QuerySubscription[T] {
	return &QuerySubscription[T]{feed: feed, collection: collection, query: query}
}

func (q *QuerySubscription[T]) Subscribe(ctx context.Context, onSnapshot func([]T), onError func(error)) (func(), error) {
	events, stopFeed, err := q.feed.Subscribe(q.collection)
	if err != nil {
		return nil, err
	}

	ctx, cancelCtx := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer stopFeed()

		q.emit(ctx, onSnapshot, onError)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				drain(events)
				q.emit(ctx, onSnapshot, onError)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelCtx()
			<-done
		})
	}, nil
}

func (q *QuerySubscription[T]) emit(ctx context.Context, onSnapshot func([]T), onError func(error)) {
	items, err := q.query(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	onSnapshot(items)
}

// drain collapses a burst of events into one re-query.
func drain(events <-chan changefeed.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
