package webhook

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Queue is an optional secondary sink that receives every serialized
// envelope, typically an AMQP exchange.
type Queue interface {
	Publish(exchange string, body []byte) error
}

// Dispatcher delivers webhook envelopes. Delivery is fire-and-forget: the
// caller's event path is never blocked on, or failed by, the outbound call.
type Dispatcher struct {
	client   *http.Client
	log      *logrus.Logger
	queue    Queue
	exchange string
}

// NewDispatcher creates a Dispatcher with a bounded delivery timeout.
func NewDispatcher(log *logrus.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// WithQueue attaches a message-queue sink that receives every envelope in
// addition to the HTTP delivery.
func (d *Dispatcher) WithQueue(q Queue, exchange string) *Dispatcher {
	d.queue = q
	d.exchange = exchange
	return d
}

// Dispatch serializes the envelope and delivers it to the session's
// webhook URL. An empty URL skips HTTP delivery. Failures are logged and
// swallowed so a broken endpoint cannot destabilize the live session.
func (d *Dispatcher) Dispatch(url string, env *Envelope) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	body, err := json.Marshal(env)
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"session": env.Session,
			"event":   env.Event,
		}).WithError(err).Error("webhook: marshal envelope failed")
		return
	}

	if d.queue != nil {
		if err := d.queue.Publish(d.exchange, body); err != nil {
			d.log.WithField("session", env.Session).WithError(err).Warn("webhook: queue publish failed")
		}
	}

	if url == "" {
		return
	}
	go d.deliver(url, env, body)
}

func (d *Dispatcher) deliver(url string, env *Envelope, body []byte) {
	resp, err := d.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"session": env.Session,
			"event":   env.Event,
			"url":     url,
		}).WithError(err).Error("webhook: delivery failed")
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		d.log.WithFields(logrus.Fields{
			"session": env.Session,
			"event":   env.Event,
			"url":     url,
			"code":    resp.StatusCode,
		}).Warn("webhook: endpoint returned non-success status")
	}
}
