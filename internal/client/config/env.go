package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by parseEnv.
const (
	EnvAPIURL            = "GOPHAUTH_API_URL"
	EnvAccountsAPIURL    = "GOPHAUTH_ACCOUNTS_API_URL"
	EnvTimeout           = "GOPHAUTH_TIMEOUT"
	EnvRetryAttempts     = "GOPHAUTH_RETRY_ATTEMPTS"
	EnvRetryDelay        = "GOPHAUTH_RETRY_DELAY"
	EnvRetryMaxDelay     = "GOPHAUTH_RETRY_MAX_DELAY"
	EnvOTPCodeTTL        = "GOPHAUTH_OTP_TTL"
	EnvDataDir           = "GOPHAUTH_DATA_DIR"
	EnvStoragePassphrase = "GOPHAUTH_STORAGE_PASSPHRASE"
	EnvLogLevel          = "GOPHAUTH_LOG_LEVEL"
	EnvLogFormat         = "GOPHAUTH_LOG_FORMAT"
)

// parseEnv overlays cfg with the variables that are set and non-empty.
// Durations take Go syntax ("30s") or a bare number of milliseconds.
func parseEnv(cfg *Config) error {
	getEnvString(EnvAPIURL, &cfg.APIURL)
	getEnvString(EnvAccountsAPIURL, &cfg.AccountsAPIURL)
	getEnvString(EnvDataDir, &cfg.DataDir)
	getEnvString(EnvStoragePassphrase, &cfg.StoragePassphrase)
	getEnvString(EnvLogLevel, &cfg.LogLevel)
	getEnvString(EnvLogFormat, &cfg.LogFormat)

	if err := getEnvInt(EnvRetryAttempts, &cfg.RetryAttempts); err != nil {
		return err
	}
	for key, dst := range map[string]*time.Duration{
		EnvTimeout:       &cfg.RequestTimeout,
		EnvRetryDelay:    &cfg.RetryDelay,
		EnvRetryMaxDelay: &cfg.RetryMaxDelay,
		EnvOTPCodeTTL:    &cfg.OTPCodeTTL,
	} {
		if err := getEnvDuration(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func getEnvString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func getEnvInt(key string, dst *int) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	*dst = num
	return nil
}

func getEnvDuration(key string, dst *time.Duration) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	d, err := parseDuration(val)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	*dst = d
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}
