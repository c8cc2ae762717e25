package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/carebridge/carebridge/internal/platform/hipaa"
)

// DevSecretKey signs tokens when ENV=development and SECRET_KEY is unset.
// Validate refuses it in any other environment.
const DevSecretKey = "carebridge-development-secret-do-not-deploy"

const minSecretKeyLen = 32

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	DatabaseURL      string   `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32    `mapstructure:"DB_MIN_CONNS"`
	MongoURI         string   `mapstructure:"MONGODB_URI"`
	DatabaseName     string   `mapstructure:"DATABASE_NAME"`
	SecretKey        string   `mapstructure:"SECRET_KEY"`
	TokenTTLMinutes  int      `mapstructure:"TOKEN_TTL_MINUTES"`
	RedisURL         string   `mapstructure:"REDIS_URL"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	SymptomTablePath string   `mapstructure:"SYMPTOM_TABLE_PATH"`
	BodyLimit        string   `mapstructure:"BODY_LIMIT"`
	RateLimitRPS     float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int      `mapstructure:"RATE_LIMIT_BURST"`
	PHIKey           string   `mapstructure:"PHI_ENCRYPTION_KEY"`
	TrustedProxies   []string `mapstructure:"TRUSTED_PROXIES"`
}

var envKeys = []string{
	"PORT",
	"ENV",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"MONGODB_URI",
	"DATABASE_NAME",
	"SECRET_KEY",
	"TOKEN_TTL_MINUTES",
	"REDIS_URL",
	"CORS_ORIGINS",
	"SYMPTOM_TABLE_PATH",
	"BODY_LIMIT",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"PHI_ENCRYPTION_KEY",
	"TRUSTED_PROXIES",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DATABASE_NAME", "carebridge")
	v.SetDefault("TOKEN_TTL_MINUTES", 1440)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("RATE_LIMIT_RPS", 0.5)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	}
	if len(cfg.TrustedProxies) <= 1 {
		cfg.TrustedProxies = splitList(v.GetString("TRUSTED_PROXIES"))
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.SecretKey == "" && cfg.IsDev() {
		cfg.SecretKey = DevSecretKey
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UserStoreDriver reports which relational driver DATABASE_URL selects:
// "postgres" or "sqlite".
func (c *Config) UserStoreDriver() string {
	if strings.HasPrefix(c.DatabaseURL, "sqlite://") {
		return "sqlite"
	}
	return "postgres"
}

// SQLitePath returns the file path of a sqlite:// DATABASE_URL.
func (c *Config) SQLitePath() string {
	return strings.TrimPrefix(c.DatabaseURL, "sqlite://")
}

// TokenTTL returns the access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// Validate checks that the configuration is safe to run. Outside development
// SECRET_KEY must be set, at least 32 characters, and not the dev key.
func (c *Config) Validate() error {
	switch {
	case strings.HasPrefix(c.DatabaseURL, "postgres://"),
		strings.HasPrefix(c.DatabaseURL, "postgresql://"):
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"):
		if c.SQLitePath() == "" {
			return fmt.Errorf("DATABASE_URL sqlite:// needs a file path")
		}
		if c.IsProduction() {
			return fmt.Errorf("DATABASE_URL must be a postgres URL in production")
		}
	default:
		return fmt.Errorf("DATABASE_URL must start with postgres:// or sqlite://, got %q", c.DatabaseURL)
	}

	if !c.IsDev() {
		if c.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required when ENV=%q", c.Env)
		}
		if c.SecretKey == DevSecretKey {
			return fmt.Errorf("SECRET_KEY must not be the development key when ENV=%q", c.Env)
		}
		if len(c.SecretKey) < minSecretKeyLen {
			return fmt.Errorf("SECRET_KEY must be at least %d characters, got %d", minSecretKeyLen, len(c.SecretKey))
		}
	}

	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive, got %d", c.TokenTTLMinutes)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RedisURL != "" && !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://")
	}
	if c.PHIKey != "" {
		if _, err := hipaa.ParseKey(c.PHIKey); err != nil {
			return fmt.Errorf("PHI_ENCRYPTION_KEY: %w", err)
		}
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
	}

	return nil
}

// TrustedProxyRanges returns the parsed TRUSTED_PROXIES. Invalid entries are
// skipped; Validate reports them.
func (c *Config) TrustedProxyRanges() []*net.IPNet {
	var out []*net.IPNet
	for _, cidr := range c.TrustedProxies {
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			out = append(out, n)
		}
	}
	return out
}
