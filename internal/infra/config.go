package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	ServiceName string
	Port        string
	DatabaseURL string

	// Broker settings. BrokerKind selects the transport: "amqp" or "nats".
	BrokerKind            string
	AMQPURL               string
	NATSURL               string
	RequestTopic          string
	ResponseTopic         string
	MaxConcurrentMessages int
	ReceiveBackoff        time.Duration

	// Object storage.
	StorageBucket    string
	SignedURLExpiry  time.Duration
	PandocPath       string
	DBMaxConns       int32
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		ServiceName:           getEnv("SERVICE_NAME", "document-generation-service"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		BrokerKind:            getEnv("BROKER_KIND", "amqp"),
		AMQPURL:               os.Getenv("AMQP_URL"),
		NATSURL:               os.Getenv("NATS_URL"),
		RequestTopic:          getEnv("REQUEST_TOPIC", "document-generation-requests"),
		ResponseTopic:         getEnv("RESPONSE_TOPIC", "document-generation-results"),
		MaxConcurrentMessages: getEnvInt("MAX_CONCURRENT_MESSAGES", 10),
		ReceiveBackoff:        time.Second * time.Duration(getEnvInt("RECEIVE_BACKOFF_SECONDS", 5)),
		StorageBucket:         getEnv("STORAGE_BUCKET", "mcxtest-attachments"),
		SignedURLExpiry:       time.Minute * time.Duration(getEnvInt("SIGNED_URL_EXPIRY_MINUTES", 15)),
		PandocPath:            getEnv("PANDOC_PATH", "pandoc"),
		DBMaxConns:            int32(getEnvInt("DB_MAX_CONNS", 10)),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.BrokerKind {
	case "amqp":
		if cfg.AMQPURL == "" {
			return nil, fmt.Errorf("AMQP_URL is required when BROKER_KIND=amqp")
		}
	case "nats":
		if cfg.NATSURL == "" {
			return nil, fmt.Errorf("NATS_URL is required when BROKER_KIND=nats")
		}
	default:
		return nil, fmt.Errorf("unsupported BROKER_KIND %q", cfg.BrokerKind)
	}

	if cfg.MaxConcurrentMessages < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_MESSAGES must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
