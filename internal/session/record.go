package session

import (
	"context"
	"sync"

	"wagate/internal/models"
	"wagate/internal/transport"
)

// Record is the registry entry for one session. The lifecycle controller
// is the only writer; all mutation goes through the methods below so the
// challenge-artifact invariant (QR pair and phone pair never both set)
// holds at every instant.
type Record struct {
	Session string

	mu        sync.RWMutex
	status    models.Status
	qrcode    string
	urlcode   string
	phoneCode string
	phone     string
	config    models.SessionConfig
	// webhook is the URL adopted once from a resumed session envelope,
	// used only when the config carries none.
	webhook string

	conn transport.Conn
	subs []transport.Subscription
	// confirmCancel aborts a pending login confirmation when the session
	// is torn down mid-create.
	confirmCancel context.CancelFunc
}

func newRecord(session string) *Record {
	return &Record{Session: session}
}

// Status returns the current lifecycle status.
func (r *Record) Status() models.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// beginCreate atomically claims the record for a new creation attempt:
// the live-state check and the INITIALIZING transition happen under one
// lock, so concurrent creates for the same session elect exactly one
// winner. Returns false when the session is already live or mid-create.
func (r *Record) beginCreate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != models.StatusUninitialized && r.status != models.StatusClosed {
		return false
	}
	r.status = models.StatusInitializing
	return true
}

// SetConfig stores the per-session creation config.
func (r *Record) SetConfig(cfg models.SessionConfig) {
	r.mu.Lock()
	r.config = cfg
	r.mu.Unlock()
}

// Config returns a copy of the creation config.
func (r *Record) Config() models.SessionConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// setChallengeQR enters the QRCODE state. The phone-code pair is cleared
// so exactly one challenge mode holds at a time.
func (r *Record) setChallengeQR(qrcode, urlcode string) {
	r.mu.Lock()
	r.status = models.StatusQRCode
	r.qrcode = qrcode
	r.urlcode = urlcode
	r.phoneCode = ""
	r.phone = ""
	r.mu.Unlock()
}

// setChallengePhone enters the PHONECODE state, clearing the QR pair.
func (r *Record) setChallengePhone(phoneCode, phone string) {
	r.mu.Lock()
	r.status = models.StatusPhoneCode
	r.phoneCode = phoneCode
	r.phone = phone
	r.qrcode = ""
	r.urlcode = ""
	r.mu.Unlock()
}

// setConnected enters the CONNECTED state and clears all challenge
// artifacts.
func (r *Record) setConnected() {
	r.mu.Lock()
	r.status = models.StatusConnected
	r.clearChallengesLocked()
	r.mu.Unlock()
}

// forceClosed marks the record CLOSED and drops challenge artifacts. The
// transport handle reference is released; closing it is the caller's job.
func (r *Record) forceClosed() {
	r.mu.Lock()
	r.status = models.StatusClosed
	r.clearChallengesLocked()
	r.conn = nil
	r.mu.Unlock()
}

func (r *Record) clearChallengesLocked() {
	r.qrcode = ""
	r.urlcode = ""
	r.phoneCode = ""
	r.phone = ""
}

// QRCode returns the current QR challenge pair.
func (r *Record) QRCode() (qrcode, urlcode string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.qrcode, r.urlcode
}

// PhoneCode returns the current phone-code challenge pair.
func (r *Record) PhoneCode() (code, phone string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phoneCode, r.phone
}

func (r *Record) attachConn(conn transport.Conn) {
	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
}

// Conn returns the live transport handle, nil once the session closed.
func (r *Record) Conn() transport.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn
}

func (r *Record) addSub(sub transport.Subscription) {
	if sub == nil {
		return
	}
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
}

func (r *Record) setConfirmCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	r.confirmCancel = cancel
	r.mu.Unlock()
}

// detach cancels a pending login confirmation and all retained
// subscriptions, then returns the transport handle so the caller can
// close it outside the lock.
func (r *Record) detach() transport.Conn {
	r.mu.Lock()
	subs := r.subs
	conn := r.conn
	cancel := r.confirmCancel
	r.subs = nil
	r.conn = nil
	r.confirmCancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, sub := range subs {
		sub.Cancel()
	}
	return conn
}

// adoptWebhook records a webhook URL carried by a resumed session
// envelope. Only the first adoption sticks.
func (r *Record) adoptWebhook(url string) {
	r.mu.Lock()
	if r.webhook == "" {
		r.webhook = url
	}
	r.mu.Unlock()
}

// WebhookURL resolves the delivery target: the creation config wins,
// then the adopted resume value. Empty disables HTTP delivery.
func (r *Record) WebhookURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.config.Webhook != "" {
		return r.config.Webhook
	}
	return r.webhook
}

// Snapshot is a read-only view of the record for the HTTP surface.
type Snapshot struct {
	Session   string        `json:"session"`
	Status    models.Status `json:"status"`
	QRCode    string        `json:"qrcode,omitempty"`
	URLCode   string        `json:"urlcode,omitempty"`
	PhoneCode string        `json:"phoneCode,omitempty"`
	Phone     string        `json:"phone,omitempty"`
}

// Snapshot returns a consistent copy of the externally visible fields.
func (r *Record) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Session:   r.Session,
		Status:    r.status,
		QRCode:    r.qrcode,
		URLCode:   r.urlcode,
		PhoneCode: r.phoneCode,
		Phone:     r.phone,
	}
}
