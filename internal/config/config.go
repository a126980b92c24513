package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Local session credential
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	SessionTTLDay int    `mapstructure:"SESSION_TTL_DAYS"`

	// Spotify OAuth
	SpotifyClientID     string `mapstructure:"CLIENT_ID"`
	SpotifyClientSecret string `mapstructure:"CLIENT_SECRET"`
	SpotifyRedirectURI  string `mapstructure:"REDIRECT_URI"`

	// Optional Redis for OAuth state nonces
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
}

// SessionTTL is the lifetime of the local session credential. The Spotify
// access token is short-lived and refreshed independently, so this stays long.
func (c *Config) SessionTTL() time.Duration {
	days := c.SessionTTLDay
	if days <= 0 {
		days = 21
	}
	return time.Duration(days) * 24 * time.Hour
}

// Load reads .env plus the process environment into a Config. The result is
// constructed once in main and handed to the components that need it; nothing
// reads viper after startup.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// A missing .env file is fine, environment variables still apply.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return nil, fmt.Errorf("CLIENT_ID and CLIENT_SECRET are required")
	}

	return &cfg, nil
}
