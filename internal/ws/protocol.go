package ws

// Message is the wire frame for every realtime broadcast.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Event names carried over the realtime channel.
const (
	EventPhoneCode       = "phoneCode"
	EventQRCode          = "qrCode"
	EventSessionLogged   = "session-logged"
	EventSessionError    = "session-error"
	EventReceivedMessage = "received-message"
	EventIncomingCall    = "incomingcall"
	EventOnAck           = "onack"
	EventPresenceChanged = "onpresencechanged"
	EventReactionMessage = "onreactionmessage"
	EventRevokedMessage  = "onrevokedmessage"
	EventPollResponse    = "onpollresponse"
	EventUpdateLabel     = "onupdatelabel"
)
