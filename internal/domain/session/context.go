package session

import (
	"context"
	"errors"
	"sync"

	"workspots/internal/changefeed"
	"workspots/internal/domain/auth"
)

var ErrAlreadyStarted = errors.New("session context already started")

// Context keeps a State current for one long-lived consumer, such as a
// WebSocket connection. It re-resolves whenever the identity's session
// changes or its profile document is written.
type Context struct {
	resolver *Resolver
	events   *auth.Events
	feed     changefeed.Broker

	mu      sync.RWMutex
	state   State
	started bool
	updates chan State
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewContext(resolver *Resolver, events *auth.Events, feed changefeed.Broker) *Context {
	return &Context{
		resolver: resolver,
		events:   events,
		feed:     feed,
		state:    State{Resolving: true},
		updates:  make(chan State, 1),
		done:     make(chan struct{}),
	}
}

// Start resolves the initial state and begins listening. It returns once
// the first state is available.
func (c *Context) Start(ctx context.Context, identityID string) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	var (
		authEvents <-chan auth.Event
		stopAuth   = func() {}
		docs       <-chan changefeed.Event
		stopDocs   = func() {}
	)
	if identityID != "" && c.events != nil {
		authEvents, stopAuth = c.events.Subscribe(identityID)
	}
	if identityID != "" && c.feed != nil {
		ch, cancel, err := c.feed.Subscribe(changefeed.CollectionUsers)
		if err != nil {
			stopAuth()
			close(c.done)
			return err
		}
		docs, stopDocs = ch, cancel
	}

	c.set(c.resolver.Resolve(ctx, identityID))

	go func() {
		defer close(c.done)
		defer stopAuth()
		defer stopDocs()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-authEvents:
				if !ok {
					authEvents = nil
					continue
				}
				if ev.Type == auth.EventSignedOut {
					c.set(State{})
					continue
				}
				c.set(c.resolver.Resolve(ctx, identityID))
			case ev, ok := <-docs:
				if !ok {
					docs = nil
					continue
				}
				if ev.DocID != identityID {
					continue
				}
				c.set(c.resolver.Resolve(ctx, identityID))
			}
		}
	}()
	return nil
}

func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Updates delivers the latest state after each change. Intermediate states
// may be skipped when the reader is slow.
func (c *Context) Updates() <-chan State {
	return c.updates
}

// Close stops listening and waits for the listener to exit.
func (c *Context) Close() {
	c.mu.Lock()
	cancel, started := c.cancel, c.started
	c.mu.Unlock()
	if !started || cancel == nil {
		return
	}
	cancel()
	<-c.done
}

func (c *Context) set(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()

	select {
	case <-c.updates:
	default:
	}
	select {
	case c.updates <- s:
	default:
	}
}

// Contexts starts Contexts that share one resolver, event bus and feed.
type Contexts struct {
	resolver *Resolver
	events   *auth.Events
	feed     changefeed.Broker
}

func NewContexts(resolver *Resolver, events *auth.Events, feed changefeed.Broker) *Contexts {
	return &Contexts{resolver: resolver, events: events, feed: feed}
}

// Start returns a started Context for identityID. The caller owns it and
// must Close it.
func (f *Contexts) Start(ctx context.Context, identityID string) (*Context, error) {
	c := NewContext(f.resolver, f.events, f.feed)
	if err := c.Start(ctx, identityID); err != nil {
		return nil, err
	}
	return c, nil
}
