// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Bitrix   BitrixConfig   `yaml:"bitrix"`
	List     ListConfig     `yaml:"list"`
	Deal     DealConfig     `yaml:"deal"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	MonthEnd MonthEndConfig `yaml:"monthend"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// BitrixConfig defines the outgoing-webhook REST endpoint settings.
type BitrixConfig struct {
	// BaseURL is the inbound webhook URL including the /rest/<user>/<token>/
	// segment. Never logged.
	BaseURL        string          `yaml:"base_url"`
	ConnectTimeout time.Duration   `yaml:"connect_timeout"`
	ReadTimeout    time.Duration   `yaml:"read_timeout"`
	Retries        int             `yaml:"retries"`
	Backoff        time.Duration   `yaml:"backoff"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines client-side REST call throttling.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// ListConfig identifies the lookup list and its property tags.
type ListConfig struct {
	ID             int    `yaml:"id"`
	SearchProperty string `yaml:"search_property"`
	DateProperty   string `yaml:"date_property"`
}

// DealConfig defines the deal-side write target and guard settings.
type DealConfig struct {
	TargetField string `yaml:"target_field"`
	LockField   string `yaml:"lock_field"`
	GraceHours  int    `yaml:"grace_hours"`
	// IntegrationUserID identifies this system's own writes. Zero means
	// derive it from the /rest/<id>/<token>/ segment of bitrix.base_url.
	IntegrationUserID int64 `yaml:"integration_user_id"`
}

// GracePeriod returns the manual-edit grace window as a duration.
func (d *DealConfig) GracePeriod() time.Duration {
	return time.Duration(d.GraceHours) * time.Hour
}

// WebhookConfig defines the inbound webhook endpoint settings.
type WebhookConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"`
}

// MonthEndConfig defines the month-end maintenance job.
type MonthEndConfig struct {
	ElementIDs []string `yaml:"element_ids"`
	Day        int      `yaml:"day"`
	Hour       int      `yaml:"hour"`
	Minute     int      `yaml:"minute"`
	Timezone   string   `yaml:"timezone"`
}

// Location resolves the configured timezone.
func (m *MonthEndConfig) Location() (*time.Location, error) {
	return time.LoadLocation(m.Timezone)
}

// NotifyConfig defines roll report delivery. An empty webhook URL disables
// notifications.
type NotifyConfig struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution, defaulting, and validation. The webhook secret may be
// supplied indirectly through webhook.secret_file; it is resolved here.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := resolveSecret(&cfg.Webhook); err != nil {
		return nil, err
	}

	if cfg.Deal.IntegrationUserID == 0 {
		cfg.Deal.IntegrationUserID = bitrix.UserIDFromWebhookURL(cfg.Bitrix.BaseURL)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyBitrixDefaults(&cfg.Bitrix)
	applyListDefaults(&cfg.List)
	applyDealDefaults(&cfg.Deal)
	applyMonthEndDefaults(&cfg.MonthEnd)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyBitrixDefaults(b *BitrixConfig) {
	if b.ConnectTimeout == 0 {
		b.ConnectTimeout = 8 * time.Second
	}
	if b.ReadTimeout == 0 {
		b.ReadTimeout = 30 * time.Second
	}
	if b.Retries == 0 {
		b.Retries = 6
	}
	if b.Backoff == 0 {
		b.Backoff = 800 * time.Millisecond
	}
	if b.RateLimit.PerSecond == 0 {
		b.RateLimit.PerSecond = 2.0
	}
	if b.RateLimit.Burst == 0 {
		b.RateLimit.Burst = 5
	}
}

func applyListDefaults(l *ListConfig) {
	if l.ID == 0 {
		l.ID = 68
	}
	if l.SearchProperty == "" {
		l.SearchProperty = "PROPERTY_204"
	}
	if l.DateProperty == "" {
		l.DateProperty = "PROPERTY_202"
	}
}

func applyDealDefaults(d *DealConfig) {
	if d.TargetField == "" {
		d.TargetField = "UF_CRM_1755600973"
	}
	if d.GraceHours == 0 {
		d.GraceHours = 24
	}
}

func applyMonthEndDefaults(m *MonthEndConfig) {
	if m.Day == 0 {
		m.Day = 1
	}
	if m.Minute == 0 {
		m.Minute = 1
	}
	if m.Timezone == "" {
		m.Timezone = "Europe/Moscow"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

// resolveSecret loads webhook.secret from webhook.secret_file when the
// inline form is empty.
func resolveSecret(w *WebhookConfig) error {
	if w.Secret != "" || w.SecretFile == "" {
		return nil
	}
	data, err := os.ReadFile(w.SecretFile) //nolint:gosec // path from config
	if err != nil {
		return fmt.Errorf("reading webhook.secret_file: %w", err)
	}
	w.Secret = strings.TrimSpace(string(data))
	return nil
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Bitrix.BaseURL == "" {
		errs = append(errs, fmt.Errorf("bitrix.base_url is required"))
	}
	if cfg.Bitrix.Retries < 1 {
		errs = append(errs, fmt.Errorf("bitrix.retries must be at least 1 (got %d)", cfg.Bitrix.Retries))
	}
	if cfg.Deal.GraceHours < 0 {
		errs = append(errs, fmt.Errorf("deal.grace_hours must not be negative (got %d)", cfg.Deal.GraceHours))
	}
	if cfg.MonthEnd.Day < 1 || cfg.MonthEnd.Day > 28 {
		errs = append(errs, fmt.Errorf("monthend.day must be within 1..28 (got %d)", cfg.MonthEnd.Day))
	}
	if _, err := cfg.MonthEnd.Location(); err != nil {
		errs = append(errs, fmt.Errorf("monthend.timezone is not a valid IANA zone: %w", err))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.level must be one of: debug, info, warn, error (got %q)",
			cfg.Logging.Level,
		))
	}

	return errors.Join(errs...)
}
