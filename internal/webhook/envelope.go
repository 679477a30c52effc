package webhook

import (
	"encoding/json"
	"fmt"

	"wagate/internal/models"
	"wagate/internal/transport"
)

// Envelope is the normalized object delivered to the webhook sink for
// every dispatched event: a fixed header plus exactly one event-kind
// payload whose fields are flattened into the top-level JSON object.
type Envelope struct {
	ID         string            `json:"id"`
	Event      models.EventType  `json:"event"`
	Session    string            `json:"session"`
	Status     models.Status     `json:"status,omitempty"`
	ChatStatus models.ChatStatus `json:"chatStatus,omitempty"`
	Payload    Payload           `json:"-"`
}

// Payload is the closed set of per-event-kind envelope variants. Adding a
// new event kind means adding a type here; the marker keeps the set closed.
type Payload interface {
	payload()
}

type QRCodePayload struct {
	QRCode  string `json:"qrcode"`
	URLCode string `json:"urlcode"`
}

type PhoneCodePayload struct {
	PhoneCode string `json:"phoneCode"`
	Phone     string `json:"phone"`
}

type SessionNoticePayload struct {
	Message string `json:"message"`
}

type MessagePayload struct{ *transport.Message }
type AckPayload struct{ *transport.Ack }
type CallPayload struct{ *transport.Call }
type PresencePayload struct{ *transport.Presence }
type ParticipantsPayload struct{ *transport.ParticipantsChange }
type ReactionPayload struct{ *transport.Reaction }
type RevocationPayload struct{ *transport.Revocation }
type PollResponsePayload struct{ *transport.PollResponse }
type LabelPayload struct{ *transport.LabelUpdate }
type LocationPayload struct{ *transport.Location }

func (QRCodePayload) payload()        {}
func (PhoneCodePayload) payload()     {}
func (SessionNoticePayload) payload() {}
func (MessagePayload) payload()       {}
func (AckPayload) payload()           {}
func (CallPayload) payload()          {}
func (PresencePayload) payload()      {}
func (ParticipantsPayload) payload()  {}
func (ReactionPayload) payload()      {}
func (RevocationPayload) payload()    {}
func (PollResponsePayload) payload()  {}
func (LabelPayload) payload()         {}
func (LocationPayload) payload()      {}

// MarshalJSON flattens the payload fields into the envelope object so the
// wire format stays a single-level JSON document.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	type header Envelope
	out := map[string]json.RawMessage{}

	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("flatten payload: %w", err)
		}
	}

	raw, err := json.Marshal((*header)(e))
	if err != nil {
		return nil, err
	}
	// Header fields win over payload fields of the same name.
	var fixed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fixed); err != nil {
		return nil, err
	}
	for k, v := range fixed {
		out[k] = v
	}
	return json.Marshal(out)
}
