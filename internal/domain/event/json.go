package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireEvent mirrors Event with the activity payload held as raw JSON so the
// tagged union can be encoded and decoded explicitly.
type wireEvent struct {
	ID       string          `json:"id"`
	TS       time.Time       `json:"ts"`
	Kind     json.RawMessage `json:"kind"`
	Source   string          `json:"source"`
	Metadata interface{}     `json:"metadata,omitempty"`
}

// MarshalJSON encodes the activity as an object tagged with a "type"
// discriminator under the "kind" key.
func (e Event) MarshalJSON() ([]byte, error) {
	kind, err := marshalActivity(e.Activity)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{
		ID:       e.ID,
		TS:       e.TS,
		Kind:     kind,
		Source:   e.Source,
		Metadata: e.Metadata,
	})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	activity, err := unmarshalActivity(w.Kind)
	if err != nil {
		return err
	}
	e.ID = w.ID
	e.TS = w.TS
	e.Activity = activity
	e.Source = w.Source
	e.Metadata = w.Metadata
	return nil
}

func marshalActivity(a Activity) (json.RawMessage, error) {
	switch v := a.(type) {
	case ProcessActivity:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			ProcessActivity
		}{KindProcess, v})
	case NetworkActivity:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			NetworkActivity
		}{KindNetwork, v})
	case FileIntegrityActivity:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			FileIntegrityActivity
		}{KindFileIntegrity, v})
	case PrivilegeActivity:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			PrivilegeActivity
		}{KindPrivilege, v})
	}
	return nil, fmt.Errorf("event: cannot encode activity of type %T", a)
}

func unmarshalActivity(data json.RawMessage) (Activity, error) {
	var tag struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, err
	}
	switch tag.Type {
	case KindProcess:
		var v ProcessActivity
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindNetwork:
		var v NetworkActivity
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindFileIntegrity:
		var v FileIntegrityActivity
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindPrivilege:
		var v PrivilegeActivity
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("event: unknown kind %q", tag.Type)
}
