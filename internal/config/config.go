package config

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int    `env:"PORT" envDefault:"5001"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./charsheet.db"`
	AppEnv       string `env:"APP_ENV" envDefault:"development"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"` // 30 days

	SessionCookieName string `env:"SESSION_COOKIE_NAME" envDefault:"jwt"`
	CookieSecure      string `env:"COOKIE_SECURE"` // empty means "derive from APP_ENV"
	CookieSameSite    string `env:"COOKIE_SAMESITE" envDefault:"strict"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that env parsing alone cannot.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("PORT %d out of range", c.ServerPort)
	}
	if c.AppEnv != EnvDevelopment && c.AppEnv != EnvProduction {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.AppEnv)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if _, err := c.SameSite(); err != nil {
		return err
	}
	if _, err := c.secureOverride(); err != nil {
		return err
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// IsProduction reports whether the service runs with production policy.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// SameSite returns the cookie SameSite mode named by COOKIE_SAMESITE.
func (c *Config) SameSite() (http.SameSite, error) {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("COOKIE_SAMESITE must be strict, lax or none, got %q", c.CookieSameSite)
	}
}

// SecureCookies reports whether the session cookie is restricted to HTTPS.
// Browsers reject SameSite=None cookies without Secure, so that mode always wins.
func (c *Config) SecureCookies() bool {
	if mode, err := c.SameSite(); err == nil && mode == http.SameSiteNoneMode {
		return true
	}
	if v, err := c.secureOverride(); err == nil && v != nil {
		return *v
	}
	return c.AppEnv != EnvDevelopment
}

func (c *Config) secureOverride() (*bool, error) {
	if c.CookieSecure == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(c.CookieSecure)
	if err != nil {
		return nil, fmt.Errorf("COOKIE_SECURE: %w", err)
	}
	return &v, nil
}
