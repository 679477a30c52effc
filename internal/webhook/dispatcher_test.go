package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wagate/internal/models"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestDispatchDeliversEnvelope(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode delivered body: %v", err)
		}
		received <- body
	}))
	defer srv.Close()

	d := NewDispatcher(testLogger(), time.Second)
	d.Dispatch(srv.URL, &Envelope{
		Event:   models.EventStatusFind,
		Session: "s1",
		Status:  models.StatusConnected,
	})

	select {
	case body := <-received:
		if body["session"] != "s1" || body["event"] != "status-find" {
			t.Errorf("delivered body = %v", body)
		}
		if body["id"] == "" || body["id"] == nil {
			t.Error("dispatch must assign an envelope id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never delivered")
	}
}

func TestDispatchSwallowsEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(testLogger(), time.Second)
	// Must not panic or block the caller.
	d.Dispatch(srv.URL, &Envelope{Event: models.EventOnMessage, Session: "s1"})
	d.Dispatch("http://127.0.0.1:1/unreachable", &Envelope{Event: models.EventOnMessage, Session: "s1"})
	time.Sleep(100 * time.Millisecond)
}

func TestDispatchSkipsEmptyURL(t *testing.T) {
	d := NewDispatcher(testLogger(), time.Second)
	d.Dispatch("", &Envelope{Event: models.EventOnAck, Session: "s1"})
}

type memQueue struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (q *memQueue) Publish(exchange string, body []byte) error {
	q.mu.Lock()
	q.bodies = append(q.bodies, body)
	q.mu.Unlock()
	return nil
}

func TestDispatchMirrorsToQueue(t *testing.T) {
	q := &memQueue{}
	d := NewDispatcher(testLogger(), time.Second).WithQueue(q, "wa.events")

	// Queue publish happens even when HTTP delivery is disabled.
	d.Dispatch("", &Envelope{Event: models.EventIncomingCall, Session: "s1"})

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.bodies) != 1 {
		t.Fatalf("queue received %d envelopes, want 1", len(q.bodies))
	}
	var body map[string]any
	if err := json.Unmarshal(q.bodies[0], &body); err != nil {
		t.Fatalf("queued body not json: %v", err)
	}
	if body["event"] != "incomingcall" {
		t.Errorf("queued event = %v", body["event"])
	}
}
