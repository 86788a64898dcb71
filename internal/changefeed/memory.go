package changefeed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

const subscriberBuffer = 64

var ErrClosed = errors.New("changefeed: broker closed")

type subscriber struct {
	ch chan Event
}

// MemoryBroker is an in-process broker. A subscriber that stops draining its
// channel loses events instead of blocking publishers.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*subscriber]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for s := range b.subs[ev.Collection] {
		select {
		case s.ch <- ev:
		default:
			slog.Warn("changefeed subscriber too slow, dropping event",
				"collection", ev.Collection, "doc_id", ev.DocID)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(collection string) (<-chan Event, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, ErrClosed
	}

	s := &subscriber{ch: make(chan Event, subscriberBuffer)}
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[*subscriber]struct{})
	}
	b.subs[collection][s] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[collection][s]; ok {
				delete(b.subs[collection], s)
				close(s.ch)
			}
		})
	}
	return s.ch, cancel, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, set := range b.subs {
		for s := range set {
			close(s.ch)
		}
	}
	b.subs = nil
	return nil
}
