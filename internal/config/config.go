// Package config loads the configuration shared by all certificate functions
// from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates the configuration surface of the certificate pipeline.
type Config struct {
	ProjectID string

	// Bucket names.
	TemplateBucket    string
	ImageBucket       string
	CertificateBucket string
	BackupBucket      string

	// Record store.
	RecordCollection string

	// Template base filename; the outcome suffix and .pdf extension are
	// appended at fetch time.
	TemplateBaseName string

	// Public verification page the QR code points at.
	CertificatePageURL string

	// CORS and shared-secret gate.
	AllowedOrigin   string
	AuthHeaderName  string
	AuthHeaderValue string

	// Timezone the caller's timestamps and the on-document date are
	// rendered in, e.g. "Europe/Vilnius".
	UserTimeZone string

	SignedURLTTL    time.Duration
	RetentionMaxAge time.Duration
}

const (
	defaultSignedURLTTL    = 5 * time.Minute
	defaultRetentionMaxAge = 24 * time.Hour
)

// Load reads configuration from environment variables. A .env file is
// honoured for local runs and ignored when absent.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ProjectID:          os.Getenv("PROJECT_ID"),
		TemplateBucket:     os.Getenv("TEMPLATE_BUCKET"),
		ImageBucket:        os.Getenv("IMAGE_BUCKET"),
		CertificateBucket:  os.Getenv("CERTIFICATE_BUCKET"),
		BackupBucket:       os.Getenv("BACKUP_BUCKET"),
		RecordCollection:   valueOrDefault("CERT_COLLECTION", "certificates"),
		TemplateBaseName:   os.Getenv("PDF_TEMPLATE_FILE"),
		CertificatePageURL: os.Getenv("CERTIFICATES_PAGE_URL"),
		AllowedOrigin:      os.Getenv("ALLOWED_ORIGIN"),
		AuthHeaderName:     valueOrDefault("AUTH_HEADER_NAME", "X-Certificate-Auth"),
		AuthHeaderValue:    os.Getenv("AUTH_HEADER_VALUE"),
		UserTimeZone:       valueOrDefault("USER_TIMEZONE", "UTC"),
		SignedURLTTL:       defaultSignedURLTTL,
		RetentionMaxAge:    defaultRetentionMaxAge,
	}

	if cfg.ProjectID == "" {
		return Config{}, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	if v := os.Getenv("SIGNED_URL_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SIGNED_URL_TTL: %w", err)
		}
		cfg.SignedURLTTL = d
	}

	if v := os.Getenv("RETENTION_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETENTION_MAX_AGE: %w", err)
		}
		cfg.RetentionMaxAge = d
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
