package transport

// Contact identifies one chat participant.
type Contact struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	PushName string `json:"pushname,omitempty"`
}

// Message is a normalized protocol message.
type Message struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Body       string  `json:"body,omitempty"`
	From       string  `json:"from"`
	To         string  `json:"to,omitempty"`
	Sender     Contact `json:"sender"`
	FromMe     bool    `json:"fromMe"`
	IsGroupMsg bool    `json:"isGroupMsg"`
	Timestamp  int64   `json:"timestamp"`
}

// Ack is a delivery/read receipt for one or more messages.
type Ack struct {
	IDs       []string `json:"ids"`
	From      string   `json:"from"`
	Chat      string   `json:"chat"`
	Ack       int      `json:"ack"`
	Timestamp int64    `json:"timestamp"`
}

// Call is an incoming voice or video call offer.
type Call struct {
	ID        string `json:"id"`
	From      string `json:"peerJid"`
	IsVideo   bool   `json:"isVideo"`
	IsGroup   bool   `json:"isGroup"`
	Timestamp int64  `json:"timestamp"`
}

// Presence is a contact availability change.
type Presence struct {
	ID       string `json:"id"`
	IsOnline bool   `json:"isOnline"`
	State    string `json:"state"`
	LastSeen int64  `json:"lastSeen,omitempty"`
}

// ParticipantsChange reports a group membership change.
type ParticipantsChange struct {
	GroupID      string   `json:"id"`
	Action       string   `json:"action"`
	Participants []string `json:"who"`
}

// Reaction is an emoji reaction to an earlier message.
type Reaction struct {
	MsgID     string `json:"msgId"`
	From      string `json:"from"`
	Text      string `json:"reactionText"`
	Timestamp int64  `json:"timestamp"`
}

// Revocation reports a message deleted for everyone.
type Revocation struct {
	From  string `json:"from"`
	Chat  string `json:"chat"`
	RefID string `json:"refId"`
}

// PollResponse is one voter's answer to a poll message.
type PollResponse struct {
	MsgID           string   `json:"msgId"`
	Sender          string   `json:"sender"`
	SelectedOptions []string `json:"selectedOptions"`
	Timestamp       int64    `json:"timestamp"`
}

// LabelUpdate reports a chat label being created, edited or removed.
type LabelUpdate struct {
	LabelID string `json:"labelId"`
	Name    string `json:"name,omitempty"`
	Color   int    `json:"color,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Location is a live-location update from a followed chat.
type Location struct {
	ID        string  `json:"id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Speed     float64 `json:"speed,omitempty"`
	Accuracy  int     `json:"accuracy,omitempty"`
	Timestamp int64   `json:"timestamp"`
}
