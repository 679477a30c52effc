package session

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"wagate/internal/config"
	"wagate/internal/models"
	"wagate/internal/tokenstore"
	"wagate/internal/transport"
	"wagate/internal/webhook"
	"wagate/internal/ws"

	"github.com/sirupsen/logrus"
)

const qrPrefix = "data:image/png;base64,"

// Dispatcher delivers webhook envelopes, fire-and-forget.
type Dispatcher interface {
	Dispatch(url string, env *webhook.Envelope)
}

// Realtime broadcasts named events to connected socket clients.
type Realtime interface {
	Emit(event string, data any)
}

// Controller drives every session through its lifecycle: creation,
// authentication challenges, connection confirmation, event subscription
// and teardown. It is the only writer of a record's status and challenge
// fields.
type Controller struct {
	registry  *Registry
	transport transport.Factory
	tokens    tokenstore.Store
	webhooks  Dispatcher
	realtime  Realtime
	cfg       *config.Config
	log       *logrus.Logger
}

// NewController wires the controller to its collaborators.
func NewController(registry *Registry, factory transport.Factory, tokens tokenstore.Store,
	webhooks Dispatcher, realtime Realtime, cfg *config.Config, log *logrus.Logger) *Controller {
	return &Controller{
		registry:  registry,
		transport: factory,
		tokens:    tokens,
		webhooks:  webhooks,
		realtime:  realtime,
		cfg:       cfg,
		log:       log,
	}
}

// Create starts a session. A live (non-closed) session with the same id
// makes this a no-op, so a double-start never creates a second transport
// handle. reply, when non-nil, is the pending HTTP response for the
// creation request; it is fulfilled exactly once by whichever completes
// first: the QR callback, the phone-code callback, or this method's
// completion path.
func (c *Controller) Create(ctx context.Context, sessionID string, cfg models.SessionConfig, reply *Reply) {
	rec := c.registry.Get(sessionID)
	if !rec.beginCreate() {
		c.log.WithField("session", sessionID).Info("session already live, ignoring create")
		reply.Send(http.StatusOK, rec.Snapshot())
		return
	}
	rec.SetConfig(cfg)

	log := c.log.WithField("session", sessionID)

	// Read-then-write-back so a refreshed phone field in the stored state
	// is visible to the code paths below, and so the webhook URL carried
	// by a resumed session is adopted before the first dispatch.
	token, err := c.tokens.GetToken(ctx, sessionID)
	if err != nil {
		log.WithError(err).Warn("token lookup failed")
	}
	state, err := DecodeResume(token, rec)
	if err != nil {
		log.WithError(err).Warn("stored session state unreadable, starting fresh")
		state = nil
	}
	encoded, err := EncodeResume(state, rec.WebhookURL())
	if err == nil {
		if err := c.tokens.SetToken(ctx, sessionID, encoded); err != nil {
			log.WithError(err).Warn("token write-back failed")
		}
	}

	opts := transport.CreateOptions{
		Session: sessionID,
		Token:   token,
		Phone:   cfg.Phone,
		CatchQR: func(base64QR, urlCode string) {
			c.exportQR(rec, base64QR, urlCode, reply)
		},
		CatchLinkCode: func(code string) {
			c.exportPhoneCode(rec, cfg.Phone, code, reply)
		},
		OnLoadingScreen: func(percent int, message string) {
			log.Infof("loading %d%% - %s", percent, message)
		},
		StatusFind: func(signal string) {
			c.handleStatusFind(rec, signal)
		},
	}
	// Device metadata must be omitted when pairing by phone code; the
	// transport rejects the pairing otherwise.
	if cfg.Phone == "" {
		opts.DeviceName = firstNonEmpty(cfg.DeviceName, c.cfg.Device.Name)
		opts.PoweredBy = firstNonEmpty(cfg.PoweredBy, c.cfg.Device.PoweredBy)
	}

	// createCtx bounds both the transport handle creation and the login
	// confirmation below. Teardown cancels it through the record, so a
	// create stuck waiting on an unanswered challenge unblocks when the
	// session is torn down.
	var createCtx context.Context
	var cancel context.CancelFunc
	if c.cfg.Store.CreateTimeout > 0 {
		createCtx, cancel = context.WithTimeout(ctx, c.cfg.Store.CreateTimeout)
	} else {
		createCtx, cancel = context.WithCancel(ctx)
	}
	rec.setConfirmCancel(cancel)
	defer cancel()

	conn, err := c.transport.CreateConnection(createCtx, opts)
	if err != nil {
		// Force CLOSED on every creation failure so a retry is never
		// blocked by a record stuck in INITIALIZING.
		log.WithError(err).Error("transport connection failed")
		rec.forceClosed()
		reply.Send(http.StatusInternalServerError, map[string]any{
			"session": sessionID,
			"status":  models.StatusClosed,
			"error":   "failed to create session",
		})
		return
	}
	rec.attachConn(conn)

	c.start(ctx, createCtx, rec)

	if c.cfg.Webhook.OnParticipantsChanged {
		c.onParticipantsChanged(rec)
	}
	if c.cfg.Webhook.OnReactionMessage {
		c.onReactionMessage(rec)
	}
	if c.cfg.Webhook.OnRevokedMessage {
		c.onRevokedMessage(rec)
	}
	if c.cfg.Webhook.OnPollResponse {
		c.onPollResponse(rec)
	}
	if c.cfg.Webhook.OnLabelUpdated {
		c.onLabelUpdated(rec)
	}

	reply.Send(http.StatusOK, rec.Snapshot())
}

// start confirms the live connection and installs the always-on event
// subscriptions. confirmCtx bounds only the confirmation wait; a failed
// confirmation is reported but state-change monitoring is still
// installed so a later recovery can be observed. A session torn down
// while waiting installs nothing.
func (c *Controller) start(ctx, confirmCtx context.Context, rec *Record) {
	log := c.log.WithField("session", rec.Session)

	conn := rec.Conn()
	if conn == nil {
		return
	}

	if err := conn.IsConnected(confirmCtx); err != nil {
		log.WithError(err).Error("connection confirmation failed")
		c.realtime.Emit(ws.EventSessionError, rec.Session)
	} else {
		rec.setConnected()
		log.Info("session started")
		c.realtime.Emit(ws.EventSessionLogged, map[string]any{
			"status":  true,
			"session": rec.Session,
		})
	}

	c.checkStateSession(ctx, rec)
	c.listenMessages(rec)

	if c.cfg.Webhook.ListenAcks {
		c.listenAcks(rec)
	}
	if c.cfg.Webhook.OnPresenceChanged {
		c.onPresenceChanged(rec)
	}
}

// checkStateSession watches the low-level connection-state stream. A
// multi-device conflict claims this device as the active one; every other
// state change is only logged.
func (c *Controller) checkStateSession(ctx context.Context, rec *Record) {
	log := c.log.WithField("session", rec.Session)
	conn := rec.Conn()
	if conn == nil {
		return
	}
	rec.addSub(conn.OnStateChange(func(state transport.StateChange) {
		log.Infof("state change %s", state)
		if state == transport.StateConflict {
			if err := conn.UseHere(ctx); err != nil {
				log.WithError(err).Error("useHere failed after conflict")
			}
		}
	}))
}

func (c *Controller) listenMessages(rec *Record) {
	conn := rec.Conn()
	if conn == nil {
		return
	}

	rec.addSub(conn.OnMessage(func(m *transport.Message) {
		c.dispatch(rec, models.EventOnMessage, models.StatusConnected, models.ChatInChat, webhook.MessagePayload{Message: m})

		if m.Type == "location" {
			rec.addSub(conn.OnLiveLocation(m.Sender.ID, func(loc *transport.Location) {
				c.dispatch(rec, models.EventLocation, models.StatusConnected, models.ChatInChat, webhook.LocationPayload{Location: loc})
			}))
		}
	}))

	rec.addSub(conn.OnAnyMessage(func(m *transport.Message) {
		c.realtime.Emit(ws.EventReceivedMessage, map[string]any{"response": m})
		if c.cfg.Webhook.OnSelfMessage && m.FromMe {
			c.dispatch(rec, models.EventOnSelfMessage, models.StatusConnected, models.ChatInChat, webhook.MessagePayload{Message: m})
		}
	}))

	rec.addSub(conn.OnIncomingCall(func(call *transport.Call) {
		c.realtime.Emit(ws.EventIncomingCall, call)
		c.dispatch(rec, models.EventIncomingCall, models.StatusConnected, models.ChatInChat, webhook.CallPayload{Call: call})
	}))
}

func (c *Controller) listenAcks(rec *Record) {
	conn := rec.Conn()
	if conn == nil {
		return
	}
	rec.addSub(conn.OnAck(func(ack *transport.Ack) {
		c.realtime.Emit(ws.EventOnAck, ack)
		c.dispatch(rec, models.EventOnAck, models.StatusConnected, models.ChatInChat, webhook.AckPayload{Ack: ack})
	}))
}

func (c *Controller) onPresenceChanged(rec *Record) {
	conn := rec.Conn()
	if conn == nil {
		return
	}
	rec.addSub(conn.OnPresenceChanged(func(p *transport.Presence) {
		c.realtime.Emit(ws.EventPresenceChanged, p)
		c.dispatch(rec, models.EventPresenceChanged, models.StatusConnected, models.ChatInChat, webhook.PresencePayload{Presence: p})
	}))
}

func (c *Controller) onParticipantsChanged(rec *Record) {
	conn := rec.Conn()
	if conn == nil {
		return
	}
	rec.addSub(conn.OnParticipantsChanged(func(p *transport.ParticipantsChange) {
		c.dispatch(rec, models.EventParticipantsChanged, models.StatusConnected, models.ChatQRAwaitingRead, webhook.ParticipantsPayload{ParticipantsChange: p})
	}))
}

func (c *Controller) onReactionMessage(rec *Record) {
	conn := rec.Conn()
	if conn == nil {
		return
	}
	rec.addSub(conn.OnReactionMessage(func(r *transport.Reaction) {
		c.realtime.Emit(ws.EventReactionMessage, r)
		c.dispatch(rec, models.EventReactionMessage, models.StatusConnected, models.ChatInChat, webhook.ReactionPayload{Reaction: r})
	}))
}

func (c *Controller) onRevokedMessage(rec *Record) {
	conn := rec.Conn()
	if conn == nil {
		return
	}
	rec.addSub(conn.OnRevokedMessage(func(r *transport.Revocation) {
		c.realtime.Emit(ws.EventRevokedMessage, r)
		c.dispatch(rec, models.EventRevokedMessage, models.StatusConnected, models.ChatInChat, webhook.RevocationPayload{Revocation: r})
	}))
}

func (c *Controller) onPollResponse(rec *Record) {
	conn := rec.Conn()
	if conn == nil {
		return
	}
	rec.addSub(conn.OnPollResponse(func(p *transport.PollResponse) {
		c.realtime.Emit(ws.EventPollResponse, p)
		c.dispatch(rec, models.EventPollResponse, models.StatusConnected, models.ChatInChat, webhook.PollResponsePayload{PollResponse: p})
	}))
}

func (c *Controller) onLabelUpdated(rec *Record) {
	conn := rec.Conn()
	if conn == nil {
		return
	}
	rec.addSub(conn.OnUpdateLabel(func(l *transport.LabelUpdate) {
		c.realtime.Emit(ws.EventUpdateLabel, l)
		c.dispatch(rec, models.EventUpdateLabel, models.StatusConnected, models.ChatInChat, webhook.LabelPayload{LabelUpdate: l})
	}))
}

// handleStatusFind routes one raw status signal: map it, apply terminal
// side effects, emit the status-find webhook. Nothing raised here may
// escape into the transport's callback path.
func (c *Controller) handleStatusFind(rec *Record, signal string) {
	log := c.log.WithField("session", rec.Session)

	mapped, err := MapStatus(signal)
	if err != nil {
		log.WithError(err).Error("status signal rejected")
		return
	}

	if IsTerminalTrigger(signal) {
		c.teardown(rec)
	}

	c.webhooks.Dispatch(c.webhookURL(rec), &webhook.Envelope{
		Event:      models.EventStatusFind,
		Session:    rec.Session,
		Status:     mapped,
		ChatStatus: models.ChatStatus(signal),
	})
	log.WithField("signal", signal).Info("status find")
}

// exportQR enters the QR challenge state. The inline image-header prefix
// is stripped from the stored artifact and re-attached only for the
// realtime broadcast.
func (c *Controller) exportQR(rec *Record, qr, urlCode string, reply *Reply) {
	qr = strings.TrimPrefix(qr, qrPrefix)
	rec.setChallengeQR(qr, urlCode)

	if img, err := base64.StdEncoding.DecodeString(qr); err != nil {
		c.log.WithField("session", rec.Session).WithError(err).Warn("QR payload is not valid base64")
	} else {
		c.realtime.Emit(ws.EventQRCode, map[string]any{
			"data":    qrPrefix + base64.StdEncoding.EncodeToString(img),
			"session": rec.Session,
		})
	}

	env := &webhook.Envelope{
		Event:      models.EventQRCode,
		Session:    rec.Session,
		Status:     models.StatusQRCode,
		ChatStatus: models.ChatQRAwaitingRead,
		Payload:    webhook.QRCodePayload{QRCode: qr, URLCode: urlCode},
	}
	c.webhooks.Dispatch(c.webhookURL(rec), env)

	reply.Send(http.StatusOK, env)
}

// exportPhoneCode enters the phone-code challenge state.
func (c *Controller) exportPhoneCode(rec *Record, phone, code string, reply *Reply) {
	rec.setChallengePhone(code, phone)

	c.realtime.Emit(ws.EventPhoneCode, map[string]any{
		"data":    code,
		"phone":   phone,
		"session": rec.Session,
	})

	env := &webhook.Envelope{
		Event:      models.EventPhoneCode,
		Session:    rec.Session,
		Status:     models.StatusPhoneCode,
		ChatStatus: models.ChatNotLogged,
		Payload:    webhook.PhoneCodePayload{PhoneCode: code, Phone: phone},
	}
	c.webhooks.Dispatch(c.webhookURL(rec), env)

	reply.Send(http.StatusOK, env)
}

// teardown releases the transport handle, cancels all subscriptions,
// marks the record CLOSED and clears its registry entry so the identifier
// can be recreated.
func (c *Controller) teardown(rec *Record) {
	if conn := rec.detach(); conn != nil {
		if err := conn.Close(); err != nil {
			c.log.WithField("session", rec.Session).WithError(err).Warn("transport close failed")
		}
	}
	rec.forceClosed()
	c.registry.Clear(rec.Session)
}

// CloseSession tears the session down on an explicit close request. The
// stored token survives, so the session can resume later.
func (c *Controller) CloseSession(ctx context.Context, sessionID string) bool {
	rec, ok := c.registry.Lookup(sessionID)
	if !ok {
		return false
	}
	c.webhooks.Dispatch(c.webhookURL(rec), &webhook.Envelope{
		Event:      models.EventCloseSession,
		Session:    rec.Session,
		Status:     models.StatusClosed,
		ChatStatus: models.ChatBrowserClose,
		Payload:    webhook.SessionNoticePayload{Message: "Session closed"},
	})
	c.teardown(rec)
	return true
}

// LogoutSession tears the session down, revokes the transport pairing
// and removes the stored token so a later create starts a fresh pairing
// instead of silently resuming.
func (c *Controller) LogoutSession(ctx context.Context, sessionID string) bool {
	rec, ok := c.registry.Lookup(sessionID)
	if !ok {
		return false
	}
	c.webhooks.Dispatch(c.webhookURL(rec), &webhook.Envelope{
		Event:      models.EventLogoutSession,
		Session:    rec.Session,
		Status:     models.StatusClosed,
		ChatStatus: models.ChatDeleteToken,
		Payload:    webhook.SessionNoticePayload{Message: "Session logged out"},
	})
	if conn := rec.Conn(); conn != nil {
		if err := conn.Logout(ctx); err != nil {
			c.log.WithField("session", sessionID).WithError(err).Warn("transport logout failed")
		}
	}
	c.teardown(rec)
	if err := c.tokens.RemoveToken(ctx, sessionID); err != nil {
		c.log.WithField("session", sessionID).WithError(err).Warn("token removal failed")
	}
	return true
}

// dispatch builds and sends a protocol-event envelope.
func (c *Controller) dispatch(rec *Record, event models.EventType, status models.Status, chat models.ChatStatus, payload webhook.Payload) {
	c.webhooks.Dispatch(c.webhookURL(rec), &webhook.Envelope{
		Event:      event,
		Session:    rec.Session,
		Status:     status,
		ChatStatus: chat,
		Payload:    payload,
	})
}

// webhookURL resolves the delivery target for rec: per-session config,
// then the URL adopted from a resumed session, then the server default.
func (c *Controller) webhookURL(rec *Record) string {
	if url := rec.WebhookURL(); url != "" {
		return url
	}
	return c.cfg.Webhook.URL
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
