package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATSBroker publishes events on "<prefix>.<collection>" so every API
// instance sees writes made by the others.
type NATSBroker struct {
	conn   *nats.Conn
	prefix string

	mu   sync.Mutex
	subs map[*nats.Subscription]chan Event
}

// DialNATS connects to url and wraps the connection in a broker.
func DialNATS(url, prefix string) (*NATSBroker, error) {
	conn, err := nats.Connect(url,
		nats.Name("workspots-changefeed"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewNATSBroker(conn, prefix), nil
}

func NewNATSBroker(conn *nats.Conn, prefix string) *NATSBroker {
	return &NATSBroker{
		conn:   conn,
		prefix: prefix,
		subs:   make(map[*nats.Subscription]chan Event),
	}
}

func (b *NATSBroker) subject(collection string) string {
	return b.prefix + "." + collection
}

func (b *NATSBroker) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := b.conn.Publish(b.subject(ev.Collection), data); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

func (b *NATSBroker) Subscribe(collection string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	sub, err := b.conn.Subscribe(b.subject(collection), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("invalid change event", "subject", msg.Subject, "err", err)
			return
		}
		select {
		case ch <- ev:
		default:
			slog.Warn("changefeed subscriber too slow, dropping event",
				"collection", ev.Collection, "doc_id", ev.DocID)
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	b.mu.Lock()
	b.subs[sub] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			b.mu.Lock()
			if c, ok := b.subs[sub]; ok {
				delete(b.subs, sub)
				close(c)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

func (b *NATSBroker) Close() error {
	b.mu.Lock()
	for sub, ch := range b.subs {
		_ = sub.Unsubscribe()
		close(ch)
	}
	b.subs = map[*nats.Subscription]chan Event{}
	b.mu.Unlock()

	return b.conn.Drain()
}
