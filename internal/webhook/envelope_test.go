package webhook

import (
	"encoding/json"
	"testing"

	"wagate/internal/models"
	"wagate/internal/transport"
)

func TestEnvelopeFlattensPayload(t *testing.T) {
	env := &Envelope{
		ID:         "evt-1",
		Event:      models.EventQRCode,
		Session:    "s1",
		Status:     models.StatusQRCode,
		ChatStatus: models.ChatQRAwaitingRead,
		Payload:    QRCodePayload{QRCode: "Zm9v", URLCode: "2@abc"},
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Payload fields sit at the top level, not under a nested key.
	want := map[string]string{
		"id":         "evt-1",
		"event":      "qrcode",
		"session":    "s1",
		"status":     "QRCODE",
		"chatStatus": "qrAwaitingRead",
		"qrcode":     "Zm9v",
		"urlcode":    "2@abc",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %q = %v, want %q", k, got[k], v)
		}
	}
	if _, nested := got["payload"]; nested {
		t.Error("payload must not appear as a nested object")
	}
}

func TestEnvelopeHeaderWinsOverPayload(t *testing.T) {
	// A message payload carries its own "id"; the envelope header must win.
	env := &Envelope{
		ID:      "evt-2",
		Event:   models.EventOnMessage,
		Session: "s1",
		Payload: MessagePayload{&transport.Message{
			ID:   "wamid.XYZ",
			Type: "chat",
			Body: "hello",
			From: "5511999999999@s.whatsapp.net",
		}},
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got["id"] != "evt-2" {
		t.Errorf("id = %v, header must win over payload", got["id"])
	}
	if got["body"] != "hello" {
		t.Errorf("body = %v, payload fields must still flatten", got["body"])
	}
}

func TestEnvelopeWithoutPayload(t *testing.T) {
	env := &Envelope{
		ID:         "evt-3",
		Event:      models.EventStatusFind,
		Session:    "s1",
		Status:     models.StatusConnected,
		ChatStatus: models.ChatIsLogged,
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["event"] != "status-find" || got["chatStatus"] != "isLogged" {
		t.Errorf("header fields wrong: %v", got)
	}
}
