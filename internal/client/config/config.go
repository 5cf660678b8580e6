package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/otp"
)

// Config holds runtime settings for the gophauth CLI.
//
// Fields:
//   - APIURL: base URL of the primary API.
//   - AccountsAPIURL: base URL of the accounts service; empty means APIURL.
//   - RequestTimeout: ceiling for a single HTTP request.
//   - RetryAttempts, RetryDelay, RetryMaxDelay: backoff for idempotent calls.
//   - OTPCodeTTL: countdown shown before a code can be resent.
//   - DataDir: where the encrypted vault lives; empty means the per-user
//     default.
//   - StoragePassphrase: derives the vault key instead of a key file.
//   - LogLevel, LogFormat: debug|info|warn|error and text|json.
type Config struct {
	APIURL            string
	AccountsAPIURL    string
	RequestTimeout    time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	RetryMaxDelay     time.Duration
	OTPCodeTTL        time.Duration
	DataDir           string
	StoragePassphrase string
	LogLevel          string
	LogFormat         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:3000"
	c.AccountsAPIURL = ""
	retry := client.DefaultRetryPolicy()
	c.RequestTimeout = client.DefaultTimeout
	c.RetryAttempts = retry.MaxRetries
	c.RetryDelay = retry.BaseDelay
	c.RetryMaxDelay = retry.MaxDelay
	c.OTPCodeTTL = otp.DefaultTTL
	c.DataDir = ""
	c.StoragePassphrase = ""
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// AccountsURL returns the accounts service base URL.
func (c *Config) AccountsURL() string {
	if c.AccountsAPIURL != "" {
		return c.AccountsAPIURL
	}
	return c.APIURL
}

// Load constructs a Config, applies defaults, then overlays values from the
// config file (if any), the environment and the flags the user set. Later
// sources take precedence over earlier ones. fs may be nil.
func Load(fs *pflag.FlagSet) (cfg *Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			cfg, err = nil, fmt.Errorf("load config: %v", r)
		}
	}()

	cfg = &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, configPath(fs))
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid config")

func validURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", ErrInvalidConfig, name, raw)
	}
	return nil
}

// Validate checks URLs and ranges.
func (c *Config) Validate() error {
	if err := validURL("api url", c.APIURL); err != nil {
		return err
	}
	if c.AccountsAPIURL != "" {
		if err := validURL("accounts api url", c.AccountsAPIURL); err != nil {
			return err
		}
	}

	switch {
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	case c.RetryAttempts < 0:
		return fmt.Errorf("%w: retry attempts must not be negative", ErrInvalidConfig)
	case c.RetryDelay <= 0 || c.RetryMaxDelay < c.RetryDelay:
		return fmt.Errorf("%w: retry delay must be positive and not above the max delay", ErrInvalidConfig)
	case c.OTPCodeTTL < time.Second:
		return fmt.Errorf("%w: otp ttl must be at least one second", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json", ErrInvalidConfig)
	}
	return nil
}
