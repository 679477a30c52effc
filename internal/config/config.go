package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	SecretKey string          `yaml:"secret_key"`
	Device    DeviceConfig    `yaml:"device"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Websocket WebsocketConfig `yaml:"websocket"`
	Store     StoreConfig     `yaml:"store"`
	AMQP      AMQPConfig      `yaml:"amqp"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DeviceConfig struct {
	Name      string `yaml:"name"`
	PoweredBy string `yaml:"powered_by"`
}

// WebhookConfig carries the server-wide default webhook URL and the
// feature flags gating which event subscriptions a session installs.
type WebhookConfig struct {
	URL                   string        `yaml:"url"`
	Timeout               time.Duration `yaml:"timeout"`
	ListenAcks            bool          `yaml:"listen_acks"`
	OnSelfMessage         bool          `yaml:"on_self_message"`
	OnPresenceChanged     bool          `yaml:"on_presence_changed"`
	OnParticipantsChanged bool          `yaml:"on_participants_changed"`
	OnReactionMessage     bool          `yaml:"on_reaction_message"`
	OnRevokedMessage      bool          `yaml:"on_revoked_message"`
	OnPollResponse        bool          `yaml:"on_poll_response"`
	OnLabelUpdated        bool          `yaml:"on_label_updated"`
}

type WebsocketConfig struct {
	SendBuffer int `yaml:"send_buffer"`
}

// StoreConfig selects the credential datastore for the transport layer.
// Driver is "sqlite" (per-session files) or "postgres".
type StoreConfig struct {
	Driver        string        `yaml:"driver"`
	DSN           string        `yaml:"dsn"`
	CreateTimeout time.Duration `yaml:"create_timeout"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// Load reads the YAML config at path over built-in defaults, then applies
// environment overrides. A missing file is not an error; env-only setups
// are supported.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 21465,
		},
		SecretKey: "THISISMYSECURETOKEN",
		Device: DeviceConfig{
			Name:      "WaGate",
			PoweredBy: "WaGate-Server",
		},
		Webhook: WebhookConfig{
			Timeout:        15 * time.Second,
			ListenAcks:     true,
			OnSelfMessage:  false,
			OnPollResponse: true,
		},
		Websocket: WebsocketConfig{SendBuffer: 64},
		Store: StoreConfig{
			Driver:        "sqlite",
			CreateTimeout: 2 * time.Minute,
		},
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.SecretKey = getEnv("SECRET_KEY", cfg.SecretKey)
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		cfg.Server.Port = p
	}
	cfg.Store.Driver = getEnv("WA_STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.DSN = getEnv("WA_STORE_DSN", cfg.Store.DSN)
	cfg.Webhook.URL = getEnv("WEBHOOK_URL", cfg.Webhook.URL)
	cfg.AMQP.URL = getEnv("AMQP_URL", cfg.AMQP.URL)
	cfg.AMQP.Exchange = getEnv("AMQP_EXCHANGE", cfg.AMQP.Exchange)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
