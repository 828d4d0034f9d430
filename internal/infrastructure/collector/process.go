package collector

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/errors"
	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
)

// ProcessCollector snapshots execution metadata for every visible process.
// Snapshots are gated by the configured poll interval: calls between polls
// return no events.
type ProcessCollector struct {
	interval time.Duration

	mu       sync.Mutex
	lastPoll time.Time
}

func NewProcess(interval time.Duration) *ProcessCollector {
	return &ProcessCollector{interval: interval}
}

func (c *ProcessCollector) Name() string { return "process" }

func (c *ProcessCollector) Snapshot(ctx context.Context) ([]event.Event, error) {
	c.mu.Lock()
	if !c.lastPoll.IsZero() && time.Since(c.lastPoll) < c.interval {
		c.mu.Unlock()
		return nil, nil
	}
	c.lastPoll = time.Now()
	c.mu.Unlock()

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errors.NewCollectorError("process", "list processes").WithCause(err)
	}

	events := make([]event.Event, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Process exited between listing and inspection.
			continue
		}

		activity := event.ProcessActivity{
			PID:  p.Pid,
			Name: name,
		}
		if ppid, err := p.PpidWithContext(ctx); err == nil {
			activity.PPID = &ppid
		}
		if exe, err := p.ExeWithContext(ctx); err == nil && exe != "" {
			activity.Exe = &exe
		}
		cmdline := name
		if args, err := p.CmdlineSliceWithContext(ctx); err == nil && len(args) > 0 {
			cmdline = args[0]
		}
		activity.Cmdline = &cmdline
		if uids, err := p.UidsWithContext(ctx); err == nil && len(uids) > 0 {
			uid := int32(uids[0])
			activity.UID = &uid
		}
		if started, err := p.CreateTimeWithContext(ctx); err == nil {
			activity.StartedAt = &started
		}

		events = append(events, event.New(activity, "process"))
	}
	return events, nil
}
