package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"wagate/internal/models"
	"wagate/internal/services"
	"wagate/internal/session"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// SessionHandler exposes the session lifecycle over HTTP.
type SessionHandler struct {
	controller *session.Controller
	registry   *session.Registry
	auth       *services.AuthService
	log        *logrus.Logger
}

func NewSessionHandler(controller *session.Controller, registry *session.Registry,
	auth *services.AuthService, log *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		registry:   registry,
		auth:       auth,
		log:        log,
	}
}

// GenerateToken issues a session-scoped bearer token. The secret path
// segment must match the configured master secret.
func (h *SessionHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionName := vars["session"]
	secret := vars["secret"]

	if !h.auth.CheckSecret(secret) {
		http.Error(w, "The SECRET_KEY is incorrect", http.StatusBadRequest)
		return
	}

	token, err := h.auth.GenerateToken(sessionName)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"session": sessionName,
		"token":   token,
		"full":    sessionName + ":" + token,
	})
}

// StartSession starts (or resumes) a session. The response is whatever
// resolves first: the QR challenge, the phone-code challenge, or the
// completed start.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	sessionName := mux.Vars(r)["session"]

	var cfg models.SessionConfig
	if r.Body != nil {
		// An empty or absent body is fine; defaults apply.
		_ = json.NewDecoder(r.Body).Decode(&cfg)
	}

	reply := session.NewReply(func(status int, body interface{}) {
		writeJSON(w, status, body)
	})

	go h.controller.Create(context.Background(), sessionName, cfg, reply)

	select {
	case <-reply.Done():
	case <-r.Context().Done():
		reply.Send(http.StatusRequestTimeout, map[string]interface{}{
			"session": sessionName,
			"error":   "request cancelled before the session produced a challenge",
		})
	}
	// The winning send may still be writing from another goroutine.
	<-reply.Done()
}

// QRCode serves the current QR challenge as a PNG, or the session state
// as JSON when no challenge is pending.
func (h *SessionHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	sessionName := mux.Vars(r)["session"]

	rec, ok := h.registry.Lookup(sessionName)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	qr, _ := rec.QRCode()
	if qr == "" {
		writeJSON(w, http.StatusOK, rec.Snapshot())
		return
	}

	img, err := base64.StdEncoding.DecodeString(qr)
	if err != nil {
		h.log.WithField("session", sessionName).WithError(err).Error("stored qr is not valid base64")
		http.Error(w, "QR code unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// Status returns the externally visible session state.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionName := mux.Vars(r)["session"]

	rec, ok := h.registry.Lookup(sessionName)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session": sessionName,
			"status":  models.StatusClosed,
		})
		return
	}
	writeJSON(w, http.StatusOK, rec.Snapshot())
}

// CloseSession tears the session down but keeps its stored credentials.
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionName := mux.Vars(r)["session"]

	if !h.controller.CloseSession(r.Context(), sessionName) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Session not active",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session closed",
	})
}

// LogoutSession tears the session down and removes its stored
// credentials, so the next start begins a fresh pairing.
func (h *SessionHandler) LogoutSession(w http.ResponseWriter, r *http.Request) {
	sessionName := mux.Vars(r)["session"]

	if !h.controller.LogoutSession(r.Context(), sessionName) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Session not active",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session logged out",
	})
}

// Healthz reports liveness and the number of registered sessions.
func (h *SessionHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": len(h.registry.Sessions()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
