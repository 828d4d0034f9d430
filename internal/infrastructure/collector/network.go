package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/net"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/errors"
	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
)

// NetworkCollector emits one flow summary per interface, carrying cumulative
// byte counters. It is stateless; counter deltas are the consumer's problem.
type NetworkCollector struct{}

func NewNetwork() *NetworkCollector { return &NetworkCollector{} }

func (c *NetworkCollector) Name() string { return "network" }

func (c *NetworkCollector) Snapshot(ctx context.Context) ([]event.Event, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, errors.NewCollectorError("network", "read interface counters").WithCause(err)
	}

	hwAddrs := make(map[string]string)
	if ifaces, err := net.InterfacesWithContext(ctx); err == nil {
		for _, iface := range ifaces {
			hwAddrs[iface.Name] = iface.HardwareAddr
		}
	}

	events := make([]event.Event, 0, len(counters))
	for _, counter := range counters {
		activity := event.NetworkActivity{
			Protocol: counter.Name,
			// The graph schema maps the interface receive counter into
			// bytes_sent and the transmit counter into bytes_recv.
			BytesSent: counter.BytesRecv,
			BytesRecv: counter.BytesSent,
		}
		if hw := hwAddrs[counter.Name]; hw != "" {
			activity.LocalAddr = &hw
		}
		events = append(events, event.New(activity, "network"))
	}
	return events, nil
}
