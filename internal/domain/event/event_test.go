package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNew(t *testing.T) {
	activity := ProcessActivity{PID: 4242, Name: "sshd", Cmdline: ptr("/usr/sbin/sshd -D")}
	before := time.Now().UTC()

	ev := New(activity, "process")

	_, err := uuid.Parse(ev.ID)
	require.NoError(t, err, "event id must be a uuid")
	assert.Equal(t, activity, ev.Activity)
	assert.Equal(t, "process", ev.Source)
	assert.False(t, ev.TS.Before(before))
	assert.Equal(t, time.UTC, ev.TS.Location())
	assert.Nil(t, ev.Metadata)
}

func TestNew_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ev := New(NetworkActivity{Protocol: "eth0"}, "network")
		assert.False(t, seen[ev.ID], "duplicate event id %s", ev.ID)
		seen[ev.ID] = true
	}
}

func TestEventJSON_TaggedKinds(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		wantType string
	}{
		{
			name: "process",
			activity: ProcessActivity{
				PID:     101,
				PPID:    ptr(int32(1)),
				Name:    "bash",
				Exe:     ptr("/bin/bash"),
				Cmdline: ptr("bash -lc make"),
			},
			wantType: "process",
		},
		{
			name: "network",
			activity: NetworkActivity{
				LocalAddr: ptr("192.168.1.10"),
				Protocol:  "eth0",
				BytesSent: 1 << 20,
				BytesRecv: 2 << 20,
			},
			wantType: "network",
		},
		{
			name: "file_integrity",
			activity: FileIntegrityActivity{
				Path:       "/etc/passwd",
				HashSHA256: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
				Size:       2048,
				Change:     FileScanned,
			},
			wantType: "file_integrity",
		},
		{
			name: "privilege",
			activity: PrivilegeActivity{
				PID:     4321,
				FromUID: 1000,
				ToUID:   ptr(int32(0)),
				Success: true,
				Method:  "sudo",
			},
			wantType: "privilege",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := New(tt.activity, tt.wantType)

			data, err := json.Marshal(ev)
			require.NoError(t, err)

			var raw map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(data, &raw))
			var kind map[string]any
			require.NoError(t, json.Unmarshal(raw["kind"], &kind))
			assert.Equal(t, tt.wantType, kind["type"])

			var decoded Event
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, ev.ID, decoded.ID)
			assert.Equal(t, tt.activity, decoded.Activity)
			assert.Equal(t, tt.activity.Kind(), decoded.Activity.Kind())
		})
	}
}

func TestEventJSON_OmitsEmptyMetadata(t *testing.T) {
	ev := New(PrivilegeActivity{PID: 1, FromUID: 0, Success: false, Method: "setuid"}, "privilege")

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"metadata"`)
}

func TestEventJSON_UnknownKind(t *testing.T) {
	var ev Event
	err := json.Unmarshal([]byte(`{"id":"x","ts":"2025-01-01T00:00:00Z","kind":{"type":"registry"},"source":"x"}`), &ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestEventJSON_NilActivity(t *testing.T) {
	_, err := json.Marshal(Event{ID: "x", TS: time.Now()})
	require.Error(t, err)
}
