package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

const (
	defaultJWTAccessTTL   = "24h"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultMediaBucket    = "project-media"
	defaultS3Region       = "us-east-1"
	defaultSignedURLTTL   = "1h"
	defaultSMTPAddr       = "localhost:1025"
	defaultListenAddr     = ":8080"
	defaultWebhookSecret  = "change-me-webhook-secret"
	defaultRendererURL    = "http://localhost:3001/render"
	defaultSMSGatewayAddr = ""
)

// Config holds everything the API process reads from the environment.
type Config struct {
	AppEnv      string
	ListenAddr  string
	DatabaseURL string

	JWTSecret    string
	JWTAccessTTL time.Duration

	// Object storage (S3 / MinIO compatible).
	S3Endpoint   string
	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	MediaBucket  string
	SignedURLTTL time.Duration

	// Outbound delivery collaborators.
	SMTPAddr      string
	SMTPFrom      string
	SMSGatewayURL string

	// External PDF renderer.
	RendererURL string

	// Shared secret expected on voice-assistant webhook calls.
	AssistantSecret string
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.ListenAddr = strings.TrimSpace(getEnv("LISTEN_ADDR", defaultListenAddr))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}

	cfg.S3Endpoint = strings.TrimSpace(os.Getenv("S3_ENDPOINT"))
	cfg.S3Region = strings.TrimSpace(getEnv("S3_REGION", defaultS3Region))
	cfg.S3AccessKey = strings.TrimSpace(os.Getenv("S3_ACCESS_KEY"))
	cfg.S3SecretKey = strings.TrimSpace(os.Getenv("S3_SECRET_KEY"))
	cfg.MediaBucket = strings.TrimSpace(getEnv("MEDIA_BUCKET", defaultMediaBucket))

	cfg.SignedURLTTL, err = parseDurationEnv("SIGNED_URL_TTL", defaultSignedURLTTL)
	if err != nil {
		return nil, err
	}

	cfg.SMTPAddr = strings.TrimSpace(getEnv("SMTP_ADDR", defaultSMTPAddr))
	cfg.SMTPFrom = strings.TrimSpace(getEnv("SMTP_FROM", "no-reply@firepm.local"))
	cfg.SMSGatewayURL = strings.TrimSpace(getEnv("SMS_GATEWAY_URL", defaultSMSGatewayAddr))

	cfg.RendererURL = strings.TrimSpace(getEnv("PDF_RENDERER_URL", defaultRendererURL))
	cfg.AssistantSecret = strings.TrimSpace(getEnv("ASSISTANT_WEBHOOK_SECRET", defaultWebhookSecret))

	if err := validate(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s bucket=%s signed_url_ttl=%s", cfg.AppEnv, cfg.MediaBucket, cfg.SignedURLTTL)

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.SignedURLTTL <= 0 {
		return fmt.Errorf("SIGNED_URL_TTL must be > 0")
	}
	if cfg.MediaBucket == "" {
		return fmt.Errorf("MEDIA_BUCKET must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.AssistantSecret, defaultWebhookSecret) {
			return fmt.Errorf("in prod/release ASSISTANT_WEBHOOK_SECRET must be set and not default")
		}
		if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return fmt.Errorf("in prod/release S3_ACCESS_KEY and S3_SECRET_KEY must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
