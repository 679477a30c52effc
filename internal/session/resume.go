package session

import (
	"encoding/json"
	"fmt"
)

// EncodeResume serializes a session-resume state, attaching the webhook
// URL so it survives a restart alongside the credentials.
func EncodeResume(state map[string]json.RawMessage, webhook string) ([]byte, error) {
	if state == nil {
		state = map[string]json.RawMessage{}
	}
	if webhook != "" {
		raw, err := json.Marshal(webhook)
		if err != nil {
			return nil, err
		}
		state["webhook"] = raw
	}
	return json.Marshal(state)
}

// DecodeResume parses a session-resume envelope. A webhook URL carried in
// the envelope is adopted into the record once, only when the record has
// none configured; the field is stripped before the state is returned.
func DecodeResume(data []byte, rec *Record) (map[string]json.RawMessage, error) {
	state := map[string]json.RawMessage{}
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode resume envelope: %w", err)
	}
	if raw, ok := state["webhook"]; ok {
		var url string
		if err := json.Unmarshal(raw, &url); err == nil && url != "" {
			rec.adoptWebhook(url)
		}
		delete(state, "webhook")
	}
	return state, nil
}
