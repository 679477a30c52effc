package models

// Status is the canonical lifecycle status of a session as exposed to
// webhook consumers. A registry record only ever holds the lifecycle
// subset (INITIALIZING, QRCODE, PHONECODE, CONNECTED, CLOSED); the
// DISCONNECTED value exists as a mapped view status for status-find
// webhooks and never lands on a record.
type Status string

const (
	// StatusUninitialized is the zero value. A session with no record,
	// or a record that was never started, reports this status.
	StatusUninitialized Status = ""
	StatusInitializing  Status = "INITIALIZING"
	StatusQRCode        Status = "QRCODE"
	StatusPhoneCode     Status = "PHONECODE"
	StatusConnected     Status = "CONNECTED"
	StatusDisconnected  Status = "DISCONNECTED"
	StatusClosed        Status = "CLOSED"
)

// SessionConfig is the opaque per-session configuration supplied on the
// creation request. Immutable for the life of the session.
type SessionConfig struct {
	// Webhook is the per-session webhook URL. Empty means use the
	// server-wide default, or a URL adopted from a resumed session.
	Webhook string `json:"webhook,omitempty"`
	// Phone switches authentication to the phone-code challenge when set.
	Phone      string `json:"phone,omitempty"`
	DeviceName string `json:"deviceName,omitempty"`
	PoweredBy  string `json:"poweredBy,omitempty"`
}
