package config

import (
	"github.com/spf13/pflag"
)

// Flag names registered by RegisterFlags.
const (
	FlagConfig        = "config"
	FlagAPIURL        = "api-url"
	FlagAccountsURL   = "accounts-url"
	FlagTimeout       = "timeout"
	FlagRetries       = "retries"
	FlagRetryDelay    = "retry-delay"
	FlagRetryMaxDelay = "retry-max-delay"
	FlagOTPTTL        = "otp-ttl"
	FlagDataDir       = "data-dir"
	FlagLogLevel      = "log-level"
	FlagLogFormat     = "log-format"
)

// RegisterFlags adds the configuration flags to fs. Defaults shown in help
// are the built-in ones; only flags the user sets override other sources.
// The storage passphrase has no flag so it never shows up in process lists.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON or YAML config file")
	fs.StringP(FlagAPIURL, "a", d.APIURL, "base URL of the API")
	fs.String(FlagAccountsURL, d.AccountsAPIURL, "base URL of the accounts service (defaults to --api-url)")
	fs.Duration(FlagTimeout, d.RequestTimeout, "per-request timeout")
	fs.Int(FlagRetries, d.RetryAttempts, "retries for idempotent requests")
	fs.Duration(FlagRetryDelay, d.RetryDelay, "first retry delay")
	fs.Duration(FlagRetryMaxDelay, d.RetryMaxDelay, "retry delay cap")
	fs.Duration(FlagOTPTTL, d.OTPCodeTTL, "one-time code lifetime")
	fs.String(FlagDataDir, d.DataDir, "directory of the encrypted vault (defaults to the user config dir)")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.LogFormat, "log format: text or json")
}

func configPath(fs *pflag.FlagSet) string {
	if fs == nil || fs.Lookup(FlagConfig) == nil {
		return ""
	}
	p, _ := fs.GetString(FlagConfig)
	return p
}

// parseFlags overlays cfg with the flags that were set on the command line.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagAPIURL:
			cfg.APIURL, err = fs.GetString(f.Name)
		case FlagAccountsURL:
			cfg.AccountsAPIURL, err = fs.GetString(f.Name)
		case FlagTimeout:
			cfg.RequestTimeout, err = fs.GetDuration(f.Name)
		case FlagRetries:
			cfg.RetryAttempts, err = fs.GetInt(f.Name)
		case FlagRetryDelay:
			cfg.RetryDelay, err = fs.GetDuration(f.Name)
		case FlagRetryMaxDelay:
			cfg.RetryMaxDelay, err = fs.GetDuration(f.Name)
		case FlagOTPTTL:
			cfg.OTPCodeTTL, err = fs.GetDuration(f.Name)
		case FlagDataDir:
			cfg.DataDir, err = fs.GetString(f.Name)
		case FlagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		case FlagLogFormat:
			cfg.LogFormat, err = fs.GetString(f.Name)
		}
	})
	return err
}
