// Package config loads runtime settings from CHOREWHEEL_* environment
// variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port   string `env:"CHOREWHEEL_PORT" envDefault:"8080"`
	DBPath string `env:"CHOREWHEEL_DB_PATH" envDefault:"chorewheel.db"`

	LogLevel  string `env:"CHOREWHEEL_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"CHOREWHEEL_LOG_FORMAT" envDefault:"text"`

	// InviteSecret signs household invite tokens. Required.
	InviteSecret string `env:"CHOREWHEEL_INVITE_SECRET"`

	// BaseURL is the public URL of this instance, used in invite links.
	BaseURL string `env:"CHOREWHEEL_BASE_URL" envDefault:"http://localhost:8080"`

	// Postmark settings. Invite emails are skipped when the token is unset.
	PostmarkToken string `env:"CHOREWHEEL_POSTMARK_TOKEN"`
	EmailFrom     string `env:"CHOREWHEEL_EMAIL_FROM" envDefault:"noreply@localhost"`

	// VAPID keypair for Web Push. Reminders are disabled when unset.
	VAPIDPublicKey  string `env:"CHOREWHEEL_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"CHOREWHEEL_VAPID_PRIVATE_KEY"`
	VAPIDSubject    string `env:"CHOREWHEEL_VAPID_SUBJECT" envDefault:"mailto:admin@localhost"`

	// ReminderSchedule is a cron expression for the daily reminder sweep.
	ReminderSchedule string `env:"CHOREWHEEL_REMINDER_SCHEDULE" envDefault:"0 8 * * *"`

	Backup BackupConfig `envPrefix:"CHOREWHEEL_BACKUP_"`
}

// BackupConfig drives encrypted S3 backups. Disabled unless a bucket is set.
type BackupConfig struct {
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	Passphrase      string `env:"PASSPHRASE"`
	Schedule        string `env:"SCHEDULE" envDefault:"0 3 * * *"`
	RetentionDays   int    `env:"RETENTION_DAYS" envDefault:"30"`
}

// Load parses the environment and validates required settings.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.InviteSecret == "" {
		return nil, fmt.Errorf("CHOREWHEEL_INVITE_SECRET is required")
	}
	if cfg.Backup.Enabled() && cfg.Backup.Passphrase == "" {
		return nil, fmt.Errorf("CHOREWHEEL_BACKUP_PASSPHRASE is required when backups are enabled")
	}
	return &cfg, nil
}

// PushEnabled reports whether Web Push reminders are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Enabled reports whether S3 backups are configured.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}
