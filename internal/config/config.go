// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	APIKey string `yaml:"api_key"` // static bearer key for /api/v1/admin
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // settings cache ttl
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"` // HS256 secret shared with the session issuer
	Issuer    string `yaml:"issuer"`     // optional; checked when set
}

type WebhookConfig struct {
	Secret          string `yaml:"secret"`
	SignatureHeader string `yaml:"signature_header"`
}

type EntitlementConfig struct {
	DefaultDurationDays       int           `yaml:"default_duration_days"`
	TeamPaymentMode           string        `yaml:"team_payment_mode"` // fresh|additive
	RecordFailedPayments      bool          `yaml:"record_failed_payments"`
	OrgPromoResetsTeamCounter bool          `yaml:"org_promo_resets_team_counter"`
	UnlockPrice               int64         `yaml:"unlock_price"`
	UnlockCurrency            string        `yaml:"unlock_currency"`
	RedeemRateLimit           int           `yaml:"redeem_rate_limit"`
	RedeemRateWindow          time.Duration `yaml:"redeem_rate_window"`
}

type NotifyConfig struct {
	Telegram struct {
		Token        string  `yaml:"token"`
		AdminChatIDs []int64 `yaml:"admin_chat_ids"`
	} `yaml:"telegram"`
	Postmark struct {
		ServerToken  string `yaml:"server_token"`
		AccountToken string `yaml:"account_token"`
		SenderEmail  string `yaml:"sender_email"`
	} `yaml:"postmark"`
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Log         LogConfig         `yaml:"log"`
	Admin       AdminConfig       `yaml:"admin"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	Entitlement EntitlementConfig `yaml:"entitlement"`
	Notify      NotifyConfig      `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates required fields.
func Parse(b []byte) (*Config, error) {
	// record_failed_payments defaults to true; yaml leaves it untouched when absent
	cfg := Config{Entitlement: EntitlementConfig{RecordFailedPayments: true}}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.Webhook.Secret == "" {
		return nil, errors.New("webhook.secret is required")
	}
	switch cfg.Entitlement.TeamPaymentMode {
	case "fresh", "additive":
	default:
		return nil, fmt.Errorf("entitlement.team_payment_mode must be fresh or additive, got %q", cfg.Entitlement.TeamPaymentMode)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Webhook.SignatureHeader == "" {
		cfg.Webhook.SignatureHeader = "X-Webhook-Signature"
	}

	e := &cfg.Entitlement
	e.TeamPaymentMode = strings.ToLower(strings.TrimSpace(e.TeamPaymentMode))
	if e.TeamPaymentMode == "" {
		e.TeamPaymentMode = "fresh"
	}
	e.UnlockCurrency = strings.ToLower(strings.TrimSpace(e.UnlockCurrency))
	if e.RedeemRateLimit <= 0 {
		e.RedeemRateLimit = 10
	}
	if e.RedeemRateWindow <= 0 {
		e.RedeemRateWindow = time.Minute
	}
	// default_duration_days is left as configured: a non-positive value is
	// substituted (and logged) where it is used.

	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 4
	}
	if cfg.Notify.QueueSize <= 0 {
		cfg.Notify.QueueSize = 256
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Minute
	}
	return d
}
