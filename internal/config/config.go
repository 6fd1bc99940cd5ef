package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sebuszqo/PayBillsWithUs/internal/encryption"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultPort           = 4000
	defaultClientOrigin   = "http://localhost:5173"
	defaultMaxOpenConns   = 50
	defaultMaxIdleConns   = 25
	defaultRateLimitRPS   = 1.0
	defaultRateLimitBurst = 5
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled reports whether outgoing mail should go through SMTP instead of the log sender.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type Config struct {
	Env          string
	Port         int
	ClientOrigin string
	LogLevel     string
	LogFormat    string

	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTSecret         string
	DataEncryptionKey []byte

	AdminAllowedHosts []string
	AgentAllowedHosts []string
	AdminUsername     string
	AdminPassword     string
	AdminTOTPSecret   string

	RateLimitRPS   float64
	RateLimitBurst int

	SMTP         SMTPConfig
	ResetURLBase string
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; the process environment wins either way
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the configuration from any key lookup, which keeps tests away from the real environment.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	var missing []string
	required := func(key string) string {
		v := get(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Env:           valueOr(get("APP_ENV"), EnvDevelopment),
		ClientOrigin:  valueOr(get("CLIENT_ORIGIN"), defaultClientOrigin),
		LogLevel:      valueOr(get("LOG_LEVEL"), "info"),
		LogFormat:     get("LOG_FORMAT"),
		DatabaseURL:   required("DATABASE_URL"),
		JWTSecret:     required("JWT_SECRET"),
		AdminUsername: required("ADMIN_USERNAME"),
		AdminPassword: required("ADMIN_PASSWORD"),

		AdminTOTPSecret: get("ADMIN_TOTP_SECRET"),
		ResetURLBase:    valueOr(get("RESET_URL_BASE"), defaultClientOrigin+"/reset-password"),
		SMTP: SMTPConfig{
			Host:     get("SMTP_HOST"),
			Port:     valueOr(get("SMTP_PORT"), "587"),
			Username: get("SMTP_USERNAME"),
			Password: get("SMTP_PASSWORD"),
			From:     get("SMTP_FROM"),
		},
	}

	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return nil, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Env)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	rawKey := required("DATA_ENCRYPTION_KEY")
	cfg.AdminAllowedHosts = splitHosts(required("ADMIN_ALLOWED_HOSTS"))
	cfg.AgentAllowedHosts = splitHosts(required("AGENT_ALLOWED_HOSTS"))

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}

	key, err := encryption.KeyFromBase64(rawKey)
	if err != nil {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY: %w", err)
	}
	cfg.DataEncryptionKey = key

	if len(cfg.AdminAllowedHosts) == 0 {
		return nil, fmt.Errorf("ADMIN_ALLOWED_HOSTS must list at least one host")
	}
	if len(cfg.AgentAllowedHosts) == 0 {
		return nil, fmt.Errorf("AGENT_ALLOWED_HOSTS must list at least one host")
	}

	if cfg.Port, err = intOr(get("PORT"), defaultPort); err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}
	if cfg.DBMaxOpenConns, err = intOr(get("DB_MAX_OPEN_CONNS"), defaultMaxOpenConns); err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.DBMaxIdleConns, err = intOr(get("DB_MAX_IDLE_CONNS"), defaultMaxIdleConns); err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}
	if cfg.RateLimitBurst, err = intOr(get("RATE_LIMIT_BURST"), defaultRateLimitBurst); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}
	cfg.RateLimitRPS = defaultRateLimitRPS
	if raw := get("RATE_LIMIT_RPS"); raw != "" {
		if cfg.RateLimitRPS, err = strconv.ParseFloat(raw, 64); err != nil || cfg.RateLimitRPS <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RPS must be a positive number")
		}
	}

	return cfg, nil
}

func splitHosts(raw string) []string {
	var hosts []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			hosts = append(hosts, entry)
		}
	}
	return hosts
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intOr(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("must be a positive integer, got %q", raw)
	}
	return v, nil
}
