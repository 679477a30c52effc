package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"wagate/internal/services"
	"wagate/internal/session"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testRouter(h *SessionHandler, auth *services.AuthService) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")
	r.HandleFunc("/api/{session}/{secret}/generate-token", h.GenerateToken).Methods("POST")
	api := r.PathPrefix("/api/{session}").Subrouter()
	api.Use(AuthMiddleware(auth))
	api.HandleFunc("/status-session", h.Status).Methods("GET")
	api.HandleFunc("/qrcode-session", h.QRCode).Methods("GET")
	return r
}

func newTestHandler() (*SessionHandler, *services.AuthService) {
	auth := services.NewAuthService("testsecret")
	h := NewSessionHandler(nil, session.NewRegistry(), auth, testLogger())
	return h, auth
}

func TestGenerateToken(t *testing.T) {
	h, auth := newTestHandler()
	router := testRouter(h, auth)

	req := httptest.NewRequest("POST", "/api/mysession/testsecret/generate-token", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("no token in response")
	}
	if err := auth.ValidateToken(token, "mysession"); err != nil {
		t.Errorf("issued token invalid: %v", err)
	}
	if body["full"] != "mysession:"+token {
		t.Errorf("full = %v", body["full"])
	}
}

func TestGenerateTokenRejectsWrongSecret(t *testing.T) {
	h, auth := newTestHandler()
	router := testRouter(h, auth)

	req := httptest.NewRequest("POST", "/api/mysession/wrongsecret/generate-token", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h, auth := newTestHandler()
	router := testRouter(h, auth)

	token, err := auth.GenerateToken("mysession")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/api/mysession/status-session", "", http.StatusUnauthorized},
		{"malformed header", "/api/mysession/status-session", "Token abc", http.StatusUnauthorized},
		{"valid token", "/api/mysession/status-session", "Bearer " + token, http.StatusOK},
		{"token for other session", "/api/othersession/status-session", "Bearer " + token, http.StatusUnauthorized},
		{"master secret", "/api/othersession/status-session", "Bearer testsecret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestStatusForUnknownSessionReportsClosed(t *testing.T) {
	h, auth := newTestHandler()
	router := testRouter(h, auth)

	req := httptest.NewRequest("GET", "/api/ghost/status-session", nil)
	req.Header.Set("Authorization", "Bearer testsecret")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if body["status"] != "CLOSED" {
		t.Errorf("status field = %v, want CLOSED", body["status"])
	}
}

func TestQRCodeForUnknownSession(t *testing.T) {
	h, auth := newTestHandler()
	router := testRouter(h, auth)

	req := httptest.NewRequest("GET", "/api/ghost/qrcode-session", nil)
	req.Header.Set("Authorization", "Bearer testsecret")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	h, auth := newTestHandler()
	router := testRouter(h, auth)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}
