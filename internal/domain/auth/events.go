package auth

import (
	"sync"
	"time"
)

type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

type Event struct {
	Type       EventType `json:"type"`
	IdentityID string    `json:"identity_id"`
	At         time.Time `json:"at"`
}

// Events pushes session changes to whoever watches an identity.
type Events struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewEvents() *Events {
	return &Events{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe returns a channel of events for identityID and a cancel func
// that closes it.
func (e *Events) Subscribe(identityID string) (<-chan Event, func()) {
	ch := make(chan Event, 8)

	e.mu.Lock()
	if e.subs[identityID] == nil {
		e.subs[identityID] = make(map[chan Event]struct{})
	}
	e.subs[identityID][ch] = struct{}{}
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs[identityID], ch)
			if len(e.subs[identityID]) == 0 {
				delete(e.subs, identityID)
			}
			close(ch)
		})
	}
}

// Publish never blocks; a full subscriber misses the event.
func (e *Events) Publish(t EventType, identityID string) {
	ev := Event{Type: t, IdentityID: identityID, At: time.Now().UTC()}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for ch := range e.subs[identityID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
