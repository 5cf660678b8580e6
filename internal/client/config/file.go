package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// FileConfig is a DTO used exclusively for config file unmarshalling.
// It relies on timex.Duration so files can specify intervals either as
// strings like "3s" or as integer nanoseconds. Pointer fields tell a key
// that is absent from a key set to its zero value.
type FileConfig struct {
	APIURL            *string         `json:"api_url" yaml:"api_url"`
	AccountsAPIURL    *string         `json:"accounts_api_url" yaml:"accounts_api_url"`
	RequestTimeout    *timex.Duration `json:"timeout" yaml:"timeout"`
	RetryAttempts     *int            `json:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay        *timex.Duration `json:"retry_delay" yaml:"retry_delay"`
	RetryMaxDelay     *timex.Duration `json:"retry_max_delay" yaml:"retry_max_delay"`
	OTPCodeTTL        *timex.Duration `json:"otp_code_ttl" yaml:"otp_code_ttl"`
	DataDir           *string         `json:"data_dir" yaml:"data_dir"`
	StoragePassphrase *string         `json:"storage_passphrase" yaml:"storage_passphrase"`
	LogLevel          *string         `json:"log_level" yaml:"log_level"`
	LogFormat         *string         `json:"log_format" yaml:"log_format"`
}

// parseFile overlays cfg with values loaded from path. The format follows
// the extension: .yaml and .yml are YAML, anything else is JSON. An empty
// path loads nothing.
//
// Panics on read or unmarshal errors; Load recovers them into an error.
func parseFile(cfg *Config, path string) {
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.APIURL, fc.APIURL)
	setString(&cfg.AccountsAPIURL, fc.AccountsAPIURL)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.StoragePassphrase, fc.StoragePassphrase)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)

	if fc.RetryAttempts != nil {
		cfg.RetryAttempts = *fc.RetryAttempts
	}
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.RetryDelay != nil {
		cfg.RetryDelay = fc.RetryDelay.Duration
	}
	if fc.RetryMaxDelay != nil {
		cfg.RetryMaxDelay = fc.RetryMaxDelay.Duration
	}
	if fc.OTPCodeTTL != nil {
		cfg.OTPCodeTTL = fc.OTPCodeTTL.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
