package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/gophauth/internal/testing/mockaccounts"
)

// Config holds runtime settings for the mock accounts service.
//
// Fields:
//   - Addr: bind address for the HTTP endpoint.
//   - SecretKey: hex HMAC secret for signing JWTs. Empty means random per run.
//   - Code: the one-time code every destination accepts.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
type Config struct {
	Addr                         string
	SecretKey                    string
	Code                         string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	LogLevel                     string
	LogFormat                    string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":3000"
	c.Code = mockaccounts.DefaultCode
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig applies defaults, then the flags in args.
//
//	-a string     bind address (e.g., ":3000")
//	-s string     JWT HMAC secret key, hex encoded
//	-o string     accepted one-time code
//	-t duration   access token validity
//	-r duration   refresh token validity
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := pflag.NewFlagSet("mockaccounts", pflag.ContinueOnError)
	fs.StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "address and port to run server")
	fs.StringVarP(&cfg.SecretKey, "secret", "s", cfg.SecretKey, "secret key (hex)")
	fs.StringVarP(&cfg.Code, "code", "o", cfg.Code, "one-time code accepted for every destination")
	fs.DurationVarP(&cfg.AccessTokenValidityDuration, "access-ttl", "t", cfg.AccessTokenValidityDuration, "access token validity")
	fs.DurationVarP(&cfg.RefreshTokenValidityDuration, "refresh-ttl", "r", cfg.RefreshTokenValidityDuration, "refresh token validity")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.AccessTokenValidityDuration <= 0 || cfg.RefreshTokenValidityDuration <= 0 {
		return nil, fmt.Errorf("token validity must be positive")
	}
	return cfg, nil
}

// options turns the config into server options.
func (c *Config) options() ([]mockaccounts.Option, error) {
	opts := []mockaccounts.Option{
		mockaccounts.WithCode(c.Code),
		mockaccounts.WithAccessTTL(c.AccessTokenValidityDuration),
		mockaccounts.WithRefreshTTL(c.RefreshTokenValidityDuration),
	}
	if c.SecretKey != "" {
		secret, err := hex.DecodeString(c.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("secret key: %w", err)
		}
		opts = append(opts, mockaccounts.WithSecret(secret))
	}
	return opts, nil
}
