package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker_DeliversPerCollection(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	users, cancelUsers, err := b.Subscribe(CollectionUsers)
	require.NoError(t, err)
	defer cancelUsers()
	venues, cancelVenues, err := b.Subscribe(CollectionVenues)
	require.NoError(t, err)
	defer cancelVenues()

	require.NoError(t, Publish(context.Background(), b, CollectionVenues, "v1", OpUpdate))

	select {
	case ev := <-venues:
		assert.Equal(t, Event{Collection: CollectionVenues, DocID: "v1", Op: OpUpdate}, ev)
	case <-time.After(time.Second):
		t.Fatal("venue event not delivered")
	}

	select {
	case ev := <-users:
		t.Fatalf("unexpected users event %+v", ev)
	default:
	}
}

func TestMemoryBroker_CancelClosesChannel(t *testing.T) {
	b := NewMemoryBroker()
	ch, cancel, err := b.Subscribe(CollectionUsers)
	require.NoError(t, err)

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.NoError(t, b.Publish(context.Background(), Event{Collection: CollectionUsers, DocID: "u"}))
}

func TestMemoryBroker_Closed(t *testing.T) {
	b := NewMemoryBroker()
	require.NoError(t, b.Close())

	_, _, err := b.Subscribe(CollectionUsers)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.Publish(context.Background(), Event{}), ErrClosed)
}

func TestPublish_NilPublisher(t *testing.T) {
	assert.NoError(t, Publish(context.Background(), nil, CollectionUsers, "u", OpCreate))
}
