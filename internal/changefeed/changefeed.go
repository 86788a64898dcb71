// Package changefeed delivers document change notifications to realtime
// subscribers. Repositories publish after every successful write; listeners
// re-read what they need.
package changefeed

import "context"

// Collections published by the repositories.
const (
	CollectionUsers  = "users"
	CollectionVenues = "remoteWorkLocations"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Event struct {
	Collection string `json:"collection"`
	DocID      string `json:"doc_id"`
	Op         Op     `json:"op"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Broker fans events out per collection. Events for one document are
// delivered in publish order; there is no ordering across collections.
type Broker interface {
	Publisher
	Subscribe(collection string) (<-chan Event, func(), error)
	Close() error
}

// Publish is a nil-safe helper for repositories whose feed is optional.
func Publish(ctx context.Context, p Publisher, collection, docID string, op Op) error {
	if p == nil {
		return nil
	}
	return p.Publish(ctx, Event{Collection: collection, DocID: docID, Op: op})
}
