package meow

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"sync"
	"time"

	"wagate/internal/transport"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

const loginPollInterval = 500 * time.Millisecond

// Conn wraps one whatsmeow client and fans its events out to the
// registered subscribers.
type Conn struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	opts      transport.CreateOptions
	log       *logrus.Logger

	messages     subList[*transport.Message]
	anyMessages  subList[*transport.Message]
	acks         subList[*transport.Ack]
	calls        subList[*transport.Call]
	presences    subList[*transport.Presence]
	participants subList[*transport.ParticipantsChange]
	reactions    subList[*transport.Reaction]
	revocations  subList[*transport.Revocation]
	pollVotes    subList[*transport.PollResponse]
	labels       subList[*transport.LabelUpdate]
	states       subList[transport.StateChange]

	liveMu   sync.RWMutex
	liveSeq  int
	liveSubs map[int]liveSub

	closeOnce sync.Once
}

type liveSub struct {
	target string
	fn     func(*transport.Location)
}

func newConn(client *whatsmeow.Client, container *sqlstore.Container, opts transport.CreateOptions, log *logrus.Logger) *Conn {
	return &Conn{
		client:    client,
		container: container,
		opts:      opts,
		log:       log,
		liveSubs:  make(map[int]liveSub),
	}
}

// IsConnected waits until the client is both connected and logged in,
// or the context expires. A fresh challenge flow resolves here only
// after the user completes it.
func (c *Conn) IsConnected(ctx context.Context) error {
	ticker := time.NewTicker(loginPollInterval)
	defer ticker.Stop()
	for {
		if c.client.IsConnected() && c.client.IsLoggedIn() {
			return nil
		}
		select {
		case <-ctx.Done():
			return transport.ErrTimeout
		case <-ticker.C:
		}
	}
}

// UseHere reclaims the session after another client took over the
// stream.
func (c *Conn) UseHere(ctx context.Context) error {
	c.client.Disconnect()
	return c.client.Connect()
}

// Logout revokes the pairing server-side and wipes the stored device
// credentials, so the next connection runs a fresh challenge instead of
// resuming. When the server-side logout fails (already disconnected,
// stale session) the local device record is deleted directly.
func (c *Conn) Logout(ctx context.Context) error {
	if err := c.client.Logout(ctx); err != nil {
		c.log.WithError(err).Warn("server-side logout failed, deleting device record")
		if derr := c.container.DeleteDevice(ctx, c.client.Store); derr != nil {
			return derr
		}
	}
	return nil
}

// Close disconnects the client and releases the credential store.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.client.Disconnect()
		err = c.container.Close()
	})
	return err
}

func (c *Conn) OnMessage(fn func(*transport.Message)) transport.Subscription {
	return c.messages.add(fn)
}

func (c *Conn) OnAnyMessage(fn func(*transport.Message)) transport.Subscription {
	return c.anyMessages.add(fn)
}

func (c *Conn) OnAck(fn func(*transport.Ack)) transport.Subscription {
	return c.acks.add(fn)
}

func (c *Conn) OnIncomingCall(fn func(*transport.Call)) transport.Subscription {
	return c.calls.add(fn)
}

func (c *Conn) OnPresenceChanged(fn func(*transport.Presence)) transport.Subscription {
	return c.presences.add(fn)
}

func (c *Conn) OnParticipantsChanged(fn func(*transport.ParticipantsChange)) transport.Subscription {
	return c.participants.add(fn)
}

func (c *Conn) OnReactionMessage(fn func(*transport.Reaction)) transport.Subscription {
	return c.reactions.add(fn)
}

func (c *Conn) OnRevokedMessage(fn func(*transport.Revocation)) transport.Subscription {
	return c.revocations.add(fn)
}

func (c *Conn) OnPollResponse(fn func(*transport.PollResponse)) transport.Subscription {
	return c.pollVotes.add(fn)
}

func (c *Conn) OnUpdateLabel(fn func(*transport.LabelUpdate)) transport.Subscription {
	return c.labels.add(fn)
}

func (c *Conn) OnStateChange(fn func(transport.StateChange)) transport.Subscription {
	return c.states.add(fn)
}

func (c *Conn) OnLiveLocation(targetID string, fn func(*transport.Location)) transport.Subscription {
	c.liveMu.Lock()
	c.liveSeq++
	id := c.liveSeq
	c.liveSubs[id] = liveSub{target: targetID, fn: fn}
	c.liveMu.Unlock()
	return newSub(func() {
		c.liveMu.Lock()
		delete(c.liveSubs, id)
		c.liveMu.Unlock()
	})
}

// qrLoop renders each QR code the server hands out and reports the
// final channel outcome as a status-find signal.
func (c *Conn) qrLoop(ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case "code":
			png, err := qrcode.Encode(item.Code, qrcode.Medium, 256)
			if err != nil {
				c.log.WithError(err).Error("failed to render qr code")
				continue
			}
			if c.opts.CatchQR != nil {
				b64 := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
				c.opts.CatchQR(b64, item.Code)
			}
			c.signal("qrAwaitingRead")
		case whatsmeow.QRChannelSuccess.Event:
			c.signal("qrReadSuccess")
		case whatsmeow.QRChannelTimeout.Event:
			c.signal("autocloseCalled")
		default:
			c.log.WithField("event", item.Event).Warn("qr channel ended unexpectedly")
			c.signal("qrReadError")
		}
	}
}

func (c *Conn) signal(status string) {
	if c.opts.StatusFind != nil {
		c.opts.StatusFind(status)
	}
}

func (c *Conn) handleEvent(raw interface{}) {
	switch evt := raw.(type) {
	case *events.Connected:
		if c.opts.OnLoadingScreen != nil {
			c.opts.OnLoadingScreen(100, "connected")
		}
		c.signal("isLogged")
		c.states.emit(transport.StateConnected)
	case *events.PairSuccess:
		c.signal("qrReadSuccess")
	case *events.LoggedOut:
		c.signal("desconnectedMobile")
		c.states.emit(transport.StateUnpaired)
	case *events.Disconnected:
		c.signal("notLogged")
	case *events.StreamReplaced:
		c.signal("browserClose")
		c.states.emit(transport.StateConflict)
	case *events.Message:
		c.handleMessage(evt)
	case *events.Receipt:
		c.handleReceipt(evt)
	case *events.Presence:
		state := "available"
		if evt.Unavailable {
			state = "unavailable"
		}
		p := &transport.Presence{
			ID:       evt.From.String(),
			IsOnline: !evt.Unavailable,
			State:    state,
		}
		if !evt.LastSeen.IsZero() {
			p.LastSeen = evt.LastSeen.Unix()
		}
		c.presences.emit(p)
	case *events.CallOffer:
		c.calls.emit(&transport.Call{
			ID:        evt.CallID,
			From:      evt.From.String(),
			Timestamp: evt.Timestamp.Unix(),
		})
	case *events.GroupInfo:
		c.handleGroupInfo(evt)
	case *events.LabelEdit:
		c.labels.emit(&transport.LabelUpdate{
			LabelID: evt.LabelID,
			Name:    evt.Action.GetName(),
			Color:   int(evt.Action.GetColor()),
			Deleted: evt.Action.GetDeleted(),
		})
	}
}

func (c *Conn) handleMessage(evt *events.Message) {
	msg := evt.Message
	if msg == nil {
		return
	}

	if r := msg.GetReactionMessage(); r != nil {
		c.reactions.emit(&transport.Reaction{
			MsgID:     r.GetKey().GetID(),
			From:      evt.Info.Sender.String(),
			Text:      r.GetText(),
			Timestamp: evt.Info.Timestamp.Unix(),
		})
		return
	}

	if pm := msg.GetProtocolMessage(); pm != nil && pm.GetType() == waE2E.ProtocolMessage_REVOKE {
		c.revocations.emit(&transport.Revocation{
			From:  evt.Info.Sender.String(),
			Chat:  evt.Info.Chat.String(),
			RefID: pm.GetKey().GetID(),
		})
		return
	}

	if msg.GetPollUpdateMessage() != nil {
		c.handlePollVote(evt)
		return
	}

	if ll := msg.GetLiveLocationMessage(); ll != nil {
		c.emitLiveLocation(evt.Info.Sender.String(), &transport.Location{
			ID:        evt.Info.ID,
			Lat:       ll.GetDegreesLatitude(),
			Lng:       ll.GetDegreesLongitude(),
			Speed:     float64(ll.GetSpeedInMps()),
			Accuracy:  int(ll.GetAccuracyInMeters()),
			Timestamp: evt.Info.Timestamp.Unix(),
		})
		return
	}

	m := &transport.Message{
		ID:         evt.Info.ID,
		Type:       messageType(evt),
		Body:       messageBody(msg),
		From:       evt.Info.Chat.String(),
		To:         evt.Info.Chat.String(),
		Sender:     transport.Contact{ID: evt.Info.Sender.String(), PushName: evt.Info.PushName},
		FromMe:     evt.Info.IsFromMe,
		IsGroupMsg: evt.Info.IsGroup,
		Timestamp:  evt.Info.Timestamp.Unix(),
	}
	c.anyMessages.emit(m)
	if !evt.Info.IsFromMe {
		c.messages.emit(m)
	}
}

func (c *Conn) handlePollVote(evt *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	vote, err := c.client.DecryptPollVote(ctx, evt)
	if err != nil {
		c.log.WithError(err).Error("failed to decrypt poll vote")
		return
	}
	options := make([]string, 0, len(vote.GetSelectedOptions()))
	for _, opt := range vote.GetSelectedOptions() {
		options = append(options, hex.EncodeToString(opt))
	}
	c.pollVotes.emit(&transport.PollResponse{
		MsgID:           evt.Message.GetPollUpdateMessage().GetPollCreationMessageKey().GetID(),
		Sender:          evt.Info.Sender.String(),
		SelectedOptions: options,
		Timestamp:       evt.Info.Timestamp.Unix(),
	})
}

func (c *Conn) handleReceipt(evt *events.Receipt) {
	level := 1
	switch evt.Type {
	case types.ReceiptTypeDelivered:
		level = 2
	case types.ReceiptTypeRead, types.ReceiptTypeReadSelf:
		level = 3
	case types.ReceiptTypePlayed:
		level = 4
	}
	c.acks.emit(&transport.Ack{
		IDs:       evt.MessageIDs,
		From:      evt.Sender.String(),
		Chat:      evt.Chat.String(),
		Ack:       level,
		Timestamp: evt.Timestamp.Unix(),
	})
}

func (c *Conn) handleGroupInfo(evt *events.GroupInfo) {
	emit := func(action string, jids []types.JID) {
		if len(jids) == 0 {
			return
		}
		who := make([]string, 0, len(jids))
		for _, j := range jids {
			who = append(who, j.String())
		}
		c.participants.emit(&transport.ParticipantsChange{
			GroupID:      evt.JID.String(),
			Action:       action,
			Participants: who,
		})
	}
	emit("add", evt.Join)
	emit("remove", evt.Leave)
	emit("promote", evt.Promote)
	emit("demote", evt.Demote)
}

func (c *Conn) emitLiveLocation(sender string, loc *transport.Location) {
	c.liveMu.RLock()
	subs := make([]liveSub, 0, len(c.liveSubs))
	for _, s := range c.liveSubs {
		subs = append(subs, s)
	}
	c.liveMu.RUnlock()
	for _, s := range subs {
		if s.target == "" || s.target == sender {
			s.fn(loc)
		}
	}
}

func messageType(evt *events.Message) string {
	msg := evt.Message
	switch {
	case msg.GetLocationMessage() != nil:
		return "location"
	case msg.GetImageMessage() != nil:
		return "image"
	case msg.GetVideoMessage() != nil:
		return "video"
	case msg.GetAudioMessage() != nil:
		return "ptt"
	case msg.GetDocumentMessage() != nil:
		return "document"
	case msg.GetStickerMessage() != nil:
		return "sticker"
	default:
		if evt.Info.Type != "" {
			return evt.Info.Type
		}
		return "chat"
	}
}

func messageBody(msg *waE2E.Message) string {
	if t := msg.GetConversation(); t != "" {
		return t
	}
	if et := msg.GetExtendedTextMessage(); et != nil {
		return et.GetText()
	}
	if im := msg.GetImageMessage(); im != nil {
		return im.GetCaption()
	}
	if vm := msg.GetVideoMessage(); vm != nil {
		return vm.GetCaption()
	}
	if dm := msg.GetDocumentMessage(); dm != nil {
		return dm.GetCaption()
	}
	return ""
}
