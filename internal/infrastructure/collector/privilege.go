package collector

import (
	"context"
	"sync"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
)

const maxQueuedPrivilegeEvents = 1000

// PrivilegeCollector buffers escalation attempts recorded by platform hooks
// (audit log tailers, setuid monitors) and drains them on snapshot. The queue
// is bounded; once full, the oldest entry is dropped for each new one.
type PrivilegeCollector struct {
	mu    sync.Mutex
	queue []event.PrivilegeActivity
}

func NewPrivilege() *PrivilegeCollector { return &PrivilegeCollector{} }

func (c *PrivilegeCollector) Name() string { return "privilege" }

// Feed records one escalation attempt from a platform hook.
func (c *PrivilegeCollector) Feed(activity event.PrivilegeActivity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, activity)
	if len(c.queue) > maxQueuedPrivilegeEvents {
		c.queue = c.queue[1:]
	}
}

// Snapshot drains the queue, wrapping each buffered attempt as an event.
func (c *PrivilegeCollector) Snapshot(ctx context.Context) ([]event.Event, error) {
	c.mu.Lock()
	drained := c.queue
	c.queue = nil
	c.mu.Unlock()

	if len(drained) == 0 {
		return nil, nil
	}
	events := make([]event.Event, 0, len(drained))
	for _, activity := range drained {
		events = append(events, event.New(activity, "privilege"))
	}
	return events, nil
}
