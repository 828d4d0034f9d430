package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies a telemetry category on the wire and in storage.
type Kind string

const (
	KindProcess       Kind = "process"
	KindNetwork       Kind = "network"
	KindFileIntegrity Kind = "file_integrity"
	KindPrivilege     Kind = "privilege"
)

// Activity is the kind-specific payload of an Event. The implementation set
// is closed: process, network, file integrity, and privilege activities.
// Consumers switch over the concrete types so that adding a kind is a
// compile-visible change at every consumption site.
type Activity interface {
	Kind() Kind
	sealed()
}

// Event is one immutable unit of collected telemetry.
type Event struct {
	ID       string      `json:"id"`
	TS       time.Time   `json:"ts"`
	Activity Activity    `json:"kind"`
	Source   string      `json:"source"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// New creates an event with a fresh id and the current UTC timestamp.
func New(activity Activity, source string) Event {
	return Event{
		ID:       uuid.New().String(),
		TS:       time.Now().UTC(),
		Activity: activity,
		Source:   source,
	}
}

// ProcessActivity captures execution metadata for one running process.
type ProcessActivity struct {
	PID       int32   `json:"pid"`
	PPID      *int32  `json:"ppid,omitempty"`
	Name      string  `json:"name"`
	Exe       *string `json:"exe,omitempty"`
	Cmdline   *string `json:"cmdline,omitempty"`
	UID       *int32  `json:"uid,omitempty"`
	StartedAt *int64  `json:"started_at,omitempty"`
}

func (ProcessActivity) Kind() Kind { return KindProcess }
func (ProcessActivity) sealed()    {}

// NetworkActivity is a flow summary, typically one per interface with
// cumulative byte counters.
type NetworkActivity struct {
	LocalAddr  *string `json:"local_addr,omitempty"`
	LocalPort  *uint16 `json:"local_port,omitempty"`
	RemoteAddr *string `json:"remote_addr,omitempty"`
	RemotePort *uint16 `json:"remote_port,omitempty"`
	Protocol   string  `json:"protocol"`
	BytesSent  uint64  `json:"bytes_sent"`
	BytesRecv  uint64  `json:"bytes_recv"`
	PID        *int32  `json:"pid,omitempty"`
}

func (NetworkActivity) Kind() Kind { return KindNetwork }
func (NetworkActivity) sealed()    {}

// FileChange classifies what a file integrity scan observed.
type FileChange string

const (
	FileCreated  FileChange = "created"
	FileModified FileChange = "modified"
	FileDeleted  FileChange = "deleted"
	FileScanned  FileChange = "scanned"
)

// FileIntegrityActivity records the hash and metadata of one scanned file.
type FileIntegrityActivity struct {
	Path       string     `json:"path"`
	HashSHA256 string     `json:"hash_sha256"`
	Size       uint64     `json:"size"`
	ModifiedTS *int64     `json:"modified_ts,omitempty"`
	Change     FileChange `json:"event"`
}

func (FileIntegrityActivity) Kind() Kind { return KindFileIntegrity }
func (FileIntegrityActivity) sealed()    {}

// PrivilegeActivity records one privilege escalation attempt.
type PrivilegeActivity struct {
	PID     int32  `json:"pid"`
	FromUID int32  `json:"from_uid"`
	ToUID   *int32 `json:"to_uid,omitempty"`
	Success bool   `json:"success"`
	Method  string `json:"method"`
}

func (PrivilegeActivity) Kind() Kind { return KindPrivilege }
func (PrivilegeActivity) sealed()    {}
