package source

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"workspots/internal/changefeed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchFunc(t *testing.T) {
	var src OneShot[int] = FetchFunc[int](func(context.Context) ([]int, error) { return []int{1, 2}, nil })
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestQuerySubscription_PushesSnapshots(t *testing.T) {
	feed := changefeed.NewMemoryBroker()
	defer feed.Close()

	var version atomic.Int32
	var src Subscribed[int32] = NewQuerySubscription[int32](feed, changefeed.CollectionUsers,
		func(context.Context) ([]int32, error) { return []int32{version.Load()}, nil })

	var mu sync.Mutex
	var snapshots [][]int32
	cancel, err := src.Subscribe(context.Background(), func(s []int32) {
		mu.Lock()
		snapshots = append(snapshots, s)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	defer cancel()

	last := func() int32 {
		mu.Lock()
		defer mu.Unlock()
		if len(snapshots) == 0 {
			return -1
		}
		return snapshots[len(snapshots)-1][0]
	}
	assert.Eventually(t, func() bool { return last() == 0 }, time.Second, 5*time.Millisecond)

	version.Store(7)
	require.NoError(t, changefeed.Publish(context.Background(), feed, changefeed.CollectionUsers, "u", changefeed.OpUpdate))
	assert.Eventually(t, func() bool { return last() == 7 }, time.Second, 5*time.Millisecond)

	// other collections are ignored
	version.Store(9)
	require.NoError(t, changefeed.Publish(context.Background(), feed, changefeed.CollectionVenues, "v", changefeed.OpUpdate))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(7), last())
}

func TestQuerySubscription_ReportsErrors(t *testing.T) {
	feed := changefeed.NewMemoryBroker()
	defer feed.Close()

	boom := errors.New("boom")
	errs := make(chan error, 1)
	cancel, err := NewQuerySubscription[int](feed, changefeed.CollectionUsers,
		func(context.Context) ([]int, error) { return nil, boom }).
		Subscribe(context.Background(), func([]int) { t.Error("unexpected snapshot") }, func(err error) { errs <- err })
	require.NoError(t, err)
	defer cancel()

	select {
	case got := <-errs:
		assert.ErrorIs(t, got, boom)
	case <-time.After(time.Second):
		t.Fatal("no error reported")
	}
}

func TestQuerySubscription_ClosedFeed(t *testing.T) {
	feed := changefeed.NewMemoryBroker()
	require.NoError(t, feed.Close())

	_, err := NewQuerySubscription[int](feed, changefeed.CollectionUsers,
		func(context.Context) ([]int, error) { return nil, nil }).
		Subscribe(context.Background(), func([]int) {}, nil)
	assert.ErrorIs(t, err, changefeed.ErrClosed)
}
