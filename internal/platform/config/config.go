package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-wide configuration so main stays lean.
type Server struct {
	Addr string

	// BaseURL is the homepage the invitation deep links point at.
	BaseURL string

	// JWTSecretKey signs both invitation tokens and API access tokens.
	JWTSecretKey string

	// DatabaseURL enables the postgres user store when set; otherwise the
	// in-memory store is used.
	DatabaseURL string

	// RedisURL enables the redis redemption ledger when set.
	RedisURL string

	// SendgridAPIKey enables real mail delivery; without it invitation
	// emails are only logged.
	SendgridAPIKey string
	EmailSender    string
	MailQueueSize  int

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// DevSeed creates the sample users on startup (memory store only).
	DevSeed bool
}

// MailSendTimeout bounds a single delivery attempt so the dispatcher never
// wedges on a slow provider.
var MailSendTimeout = 10 * time.Second

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("GOODBYE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	jwtSecretKey := os.Getenv("JWT_SECRET_KEY")
	if jwtSecretKey == "" {
		// The original deployment fell back to this value too. Fine for
		// development, must be overridden in production.
		jwtSecretKey = "secret-key"
	}

	queueSize := 64
	if raw := os.Getenv("MAIL_QUEUE_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			queueSize = n
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "goodbye.delegation.audit"
	}

	return Server{
		Addr:           addr,
		BaseURL:        baseURL,
		JWTSecretKey:   jwtSecretKey,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		EmailSender:    os.Getenv("EMAIL_SENDER"),
		MailQueueSize:  queueSize,
		KafkaBrokers:   brokers,
		AuditTopic:     auditTopic,
		DevSeed:        os.Getenv("GOODBYE_DEV_SEED") == "true",
	}
}
