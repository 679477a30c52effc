package session

import (
	"testing"

	"wagate/internal/models"
)

func TestChallengeArtifactsAreMutuallyExclusive(t *testing.T) {
	rec := newRecord("s1")

	rec.setChallengeQR("QRDATA", "url-code")
	if got := rec.Status(); got != models.StatusQRCode {
		t.Fatalf("status = %q, want QRCODE", got)
	}
	if qr, url := rec.QRCode(); qr != "QRDATA" || url != "url-code" {
		t.Fatalf("QRCode() = %q, %q", qr, url)
	}

	rec.setChallengePhone("ABCD-1234", "5511999999999")
	if got := rec.Status(); got != models.StatusPhoneCode {
		t.Fatalf("status = %q, want PHONECODE", got)
	}
	if qr, url := rec.QRCode(); qr != "" || url != "" {
		t.Errorf("QR pair survived phone challenge: %q, %q", qr, url)
	}
	if code, phone := rec.PhoneCode(); code != "ABCD-1234" || phone != "5511999999999" {
		t.Errorf("PhoneCode() = %q, %q", code, phone)
	}

	rec.setChallengeQR("QR2", "url2")
	if code, phone := rec.PhoneCode(); code != "" || phone != "" {
		t.Errorf("phone pair survived QR challenge: %q, %q", code, phone)
	}
}

func TestConnectedClearsChallenges(t *testing.T) {
	rec := newRecord("s1")
	rec.setChallengeQR("QRDATA", "url-code")

	rec.setConnected()
	if got := rec.Status(); got != models.StatusConnected {
		t.Fatalf("status = %q, want CONNECTED", got)
	}
	snap := rec.Snapshot()
	if snap.QRCode != "" || snap.URLCode != "" || snap.PhoneCode != "" || snap.Phone != "" {
		t.Errorf("challenge artifacts survived connect: %+v", snap)
	}
}

func TestForceClosedReleasesConn(t *testing.T) {
	rec := newRecord("s1")
	conn := &fakeConn{}
	rec.attachConn(conn)
	rec.setChallengeQR("QRDATA", "url-code")

	rec.forceClosed()
	if got := rec.Status(); got != models.StatusClosed {
		t.Fatalf("status = %q, want CLOSED", got)
	}
	if rec.Conn() != nil {
		t.Error("conn reference should be released")
	}
}

func TestDetachCancelsSubscriptions(t *testing.T) {
	rec := newRecord("s1")
	conn := &fakeConn{}
	rec.attachConn(conn)

	cancelled := 0
	rec.addSub(fakeSub{cancel: func() { cancelled++ }})
	rec.addSub(fakeSub{cancel: func() { cancelled++ }})
	rec.addSub(nil)

	got := rec.detach()
	if got != conn {
		t.Error("detach should return the attached conn")
	}
	if cancelled != 2 {
		t.Errorf("cancelled %d subscriptions, want 2", cancelled)
	}
	if rec.Conn() != nil {
		t.Error("conn should be nil after detach")
	}
}

func TestWebhookURLPrecedence(t *testing.T) {
	rec := newRecord("s1")
	if got := rec.WebhookURL(); got != "" {
		t.Fatalf("fresh record WebhookURL = %q, want empty", got)
	}

	rec.adoptWebhook("http://resumed.example/hook")
	if got := rec.WebhookURL(); got != "http://resumed.example/hook" {
		t.Errorf("WebhookURL = %q, want adopted URL", got)
	}

	// Only the first adoption sticks.
	rec.adoptWebhook("http://other.example/hook")
	if got := rec.WebhookURL(); got != "http://resumed.example/hook" {
		t.Errorf("WebhookURL = %q, second adoption must not overwrite", got)
	}

	// The creation config always wins.
	rec.SetConfig(models.SessionConfig{Webhook: "http://config.example/hook"})
	if got := rec.WebhookURL(); got != "http://config.example/hook" {
		t.Errorf("WebhookURL = %q, want config URL", got)
	}
}

type fakeSub struct{ cancel func() }

func (s fakeSub) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}
