package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"

	"wagate/internal/config"
	"wagate/internal/database"
	"wagate/internal/handlers"
	"wagate/internal/logger"
	"wagate/internal/queue"
	"wagate/internal/services"
	"wagate/internal/session"
	"wagate/internal/tokenstore"
	"wagate/internal/transport/meow"
	"wagate/internal/webhook"
	"wagate/internal/ws"

	"github.com/gorilla/mux"
)

// loadEnvFile loads environment variables from a file
func loadEnvFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		return // File doesn't exist, skip silently
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	}
}

func main() {
	loadEnvFile(".env")

	log := logger.New()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	db, err := database.Init()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	tokens := tokenstore.NewGormStore(db)

	dispatcher := webhook.NewDispatcher(log, cfg.Webhook.Timeout)
	if cfg.AMQP.URL != "" {
		publisher, err := queue.NewAMQPPublisher(cfg.AMQP.URL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to AMQP broker")
		}
		defer publisher.Close()
		dispatcher = dispatcher.WithQueue(publisher, cfg.AMQP.Exchange)
		log.WithField("exchange", cfg.AMQP.Exchange).Info("webhook events mirrored to AMQP")
	}

	hub := ws.NewHub(cfg.Websocket.SendBuffer, log)
	wsServer := ws.NewServer(hub, log)

	factory := meow.NewFactory(cfg.Store.Driver, cfg.Store.DSN, cfg.Device.Name, cfg.Device.PoweredBy, log)
	registry := session.NewRegistry()
	controller := session.NewController(registry, factory, tokens, dispatcher, hub, cfg, log)

	auth := services.NewAuthService(cfg.SecretKey)
	sessionHandler := handlers.NewSessionHandler(controller, registry, auth, log)

	r := mux.NewRouter()

	r.HandleFunc("/healthz", sessionHandler.Healthz).Methods("GET")
	r.HandleFunc("/ws", wsServer.HandleWS).Methods("GET")
	r.HandleFunc("/api/{session}/{secret}/generate-token", sessionHandler.GenerateToken).Methods("POST")

	api := r.PathPrefix("/api/{session}").Subrouter()
	api.Use(handlers.AuthMiddleware(auth))
	api.HandleFunc("/start-session", sessionHandler.StartSession).Methods("POST")
	api.HandleFunc("/qrcode-session", sessionHandler.QRCode).Methods("GET")
	api.HandleFunc("/status-session", sessionHandler.Status).Methods("GET")
	api.HandleFunc("/close-session", sessionHandler.CloseSession).Methods("POST")
	api.HandleFunc("/logout-session", sessionHandler.LogoutSession).Methods("POST")

	handler := handlers.CORSMiddleware(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("server started")
	log.Fatal(http.ListenAndServe(addr, handler))
}
