// Package transport defines the narrow interface through which the session
// lifecycle controller consumes the underlying WhatsApp client library.
// Implementations live in subpackages; the controller never imports one.
package transport

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrTimeout reports that the transport failed to establish a connection
// within its configured deadline.
var ErrTimeout = errors.New("transport: connection attempt timed out")

// StateChange is a low-level connection-state signal.
type StateChange string

const (
	StateConnected StateChange = "CONNECTED"
	StateConflict  StateChange = "CONFLICT"
	StateUnpaired  StateChange = "UNPAIRED"
	StateTimeout   StateChange = "TIMEOUT"
)

// CreateOptions carries everything a transport needs to bring up one
// session connection, including the callback wiring for authentication
// challenges and raw status signals.
type CreateOptions struct {
	Session string
	// Token is the resolved credential blob from the token store, nil when
	// the session has never been paired.
	Token json.RawMessage
	// Phone, when set, requests the phone-code pairing flow instead of QR.
	Phone      string
	DeviceName string
	PoweredBy  string

	// CatchQR receives each QR challenge as a base64 PNG data URI plus the
	// raw pairing code.
	CatchQR func(base64QR, urlCode string)
	// CatchLinkCode receives the phone-code challenge.
	CatchLinkCode func(code string)
	// OnLoadingScreen reports connection progress.
	OnLoadingScreen func(percent int, message string)
	// StatusFind receives every raw connection-status signal.
	StatusFind func(signal string)
}

// Subscription is an active event subscription. Cancelling it detaches the
// callback; cancelling twice is a no-op.
type Subscription interface {
	Cancel()
}

// Factory creates live connections.
type Factory interface {
	CreateConnection(ctx context.Context, opts CreateOptions) (Conn, error)
}

// Conn is one live connection to the messaging network. All subscription
// methods return handles the caller retains and cancels on teardown.
type Conn interface {
	// IsConnected blocks until the connection confirms a logged-in state
	// or the context expires.
	IsConnected(ctx context.Context) error

	OnStateChange(func(StateChange)) Subscription
	OnMessage(func(*Message)) Subscription
	OnAnyMessage(func(*Message)) Subscription
	OnAck(func(*Ack)) Subscription
	OnIncomingCall(func(*Call)) Subscription
	OnPresenceChanged(func(*Presence)) Subscription
	OnParticipantsChanged(func(*ParticipantsChange)) Subscription
	OnReactionMessage(func(*Reaction)) Subscription
	OnRevokedMessage(func(*Revocation)) Subscription
	OnPollResponse(func(*PollResponse)) Subscription
	OnUpdateLabel(func(*LabelUpdate)) Subscription
	OnLiveLocation(targetID string, fn func(*Location)) Subscription

	// UseHere claims this device as the active one after a multi-device
	// conflict.
	UseHere(ctx context.Context) error

	// Logout revokes the pairing and drops the stored device credentials,
	// so the next connection starts a fresh challenge.
	Logout(ctx context.Context) error

	Close() error
}
