package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
)

func TestNetwork_SnapshotEmitsPerInterface(t *testing.T) {
	c := NewNetwork()

	events, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, events, "at least the loopback interface is expected")

	for _, ev := range events {
		activity, ok := ev.Activity.(event.NetworkActivity)
		require.True(t, ok)
		assert.Equal(t, "network", ev.Source)
		assert.NotEmpty(t, activity.Protocol, "protocol carries the interface name")
	}
}
