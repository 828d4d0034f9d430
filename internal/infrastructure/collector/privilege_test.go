package collector

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
)

func TestPrivilege_FeedAndDrain(t *testing.T) {
	c := NewPrivilege()
	for i := int32(1); i <= 3; i++ {
		c.Feed(event.PrivilegeActivity{PID: i, FromUID: 1000, Success: i%2 == 0, Method: "sudo"})
	}

	events, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)

	for i, ev := range events {
		activity, ok := ev.Activity.(event.PrivilegeActivity)
		require.True(t, ok)
		assert.Equal(t, int32(i+1), activity.PID, "drain preserves feed order")
		assert.Equal(t, "privilege", ev.Source)
	}

	events, err = c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events, "snapshot drains the queue")
}

func TestPrivilege_QueueDropsOldest(t *testing.T) {
	c := NewPrivilege()
	for i := int32(0); i < maxQueuedPrivilegeEvents+5; i++ {
		c.Feed(event.PrivilegeActivity{PID: i, FromUID: 1000, Method: "setuid"})
	}

	events, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, events, maxQueuedPrivilegeEvents)

	first := events[0].Activity.(event.PrivilegeActivity)
	assert.Equal(t, int32(5), first.PID, "the five oldest entries were dropped")
}

func TestPrivilege_ConcurrentFeeds(t *testing.T) {
	c := NewPrivilege()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c.Feed(event.PrivilegeActivity{PID: 1, FromUID: 0, Method: "sudo"})
			}
		}()
	}
	wg.Wait()

	events, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 400)
}
