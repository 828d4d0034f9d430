package analytics

import (
	"math"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
)

// BehavioralStats aggregates counters and cardinalities over a window
// snapshot. It is recomputed fresh on every push and never persisted.
type BehavioralStats struct {
	ProcessCount   int `json:"process_count"`
	NetworkCount   int `json:"network_count"`
	FileCount      int `json:"file_count"`
	PrivilegeCount int `json:"privilege_count"`

	// Process: distinct names and command-line length over events that
	// carry a cmdline.
	UniqueProcessNames int     `json:"unique_process_names"`
	AvgCmdlineLen      float64 `json:"avg_cmdline_len"`

	// Network: cumulative byte counters.
	TotalBytesSent uint64 `json:"total_bytes_sent"`
	TotalBytesRecv uint64 `json:"total_bytes_recv"`

	// File: distinct paths and cumulative hashed size.
	UniqueFilePaths int    `json:"unique_file_paths"`
	TotalFileSize   uint64 `json:"total_file_size"`

	// Privilege: escalation outcomes.
	PrivilegeSuccess int `json:"privilege_success"`
	PrivilegeFail    int `json:"privilege_fail"`
}

// StatsFromEvents computes behavioral statistics over a window snapshot.
func StatsFromEvents(events []event.Event) BehavioralStats {
	var s BehavioralStats
	var cmdlineTotal, cmdlineSamples int
	processNames := make(map[string]struct{})
	filePaths := make(map[string]struct{})

	for _, e := range events {
		switch a := e.Activity.(type) {
		case event.ProcessActivity:
			s.ProcessCount++
			processNames[a.Name] = struct{}{}
			if a.Cmdline != nil {
				cmdlineTotal += len(*a.Cmdline)
				cmdlineSamples++
			}
		case event.NetworkActivity:
			s.NetworkCount++
			s.TotalBytesSent += a.BytesSent
			s.TotalBytesRecv += a.BytesRecv
		case event.FileIntegrityActivity:
			s.FileCount++
			filePaths[a.Path] = struct{}{}
			s.TotalFileSize += a.Size
		case event.PrivilegeActivity:
			s.PrivilegeCount++
			if a.Success {
				s.PrivilegeSuccess++
			} else {
				s.PrivilegeFail++
			}
		}
	}

	s.UniqueProcessNames = len(processNames)
	s.UniqueFilePaths = len(filePaths)
	if cmdlineSamples > 0 {
		s.AvgCmdlineLen = float64(cmdlineTotal) / float64(cmdlineSamples)
	}
	return s
}

// Vector encodes the statistics into a fixed-dimension model input. The
// encoding order and scale constants are part of the model contract and must
// not change: counts /1000, privilege counts /100, unique process names /500,
// unique file paths /1000, cmdline length /1000, byte and size totals /1e9
// capped at 1.0. Slots beyond the statistic count stay zero; statistics
// beyond dim are dropped in kept order.
func (s BehavioralStats) Vector(dim int) []float64 {
	raw := []float64{
		float64(s.ProcessCount) / 1000.0,
		float64(s.NetworkCount) / 1000.0,
		float64(s.FileCount) / 1000.0,
		float64(s.PrivilegeCount) / 100.0,
		float64(s.UniqueProcessNames) / 500.0,
		s.AvgCmdlineLen / 1000.0,
		math.Min(float64(s.TotalBytesSent)/1e9, 1.0),
		math.Min(float64(s.TotalBytesRecv)/1e9, 1.0),
		float64(s.UniqueFilePaths) / 1000.0,
		math.Min(float64(s.TotalFileSize)/1e9, 1.0),
		float64(s.PrivilegeSuccess) / 100.0,
		float64(s.PrivilegeFail) / 100.0,
	}

	out := make([]float64, dim)
	copy(out, raw)
	return out
}
