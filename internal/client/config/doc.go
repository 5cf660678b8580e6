// Package config loads runtime configuration for the gophauth CLI.
//
// # Sources and precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or --config. Files ending in
//     .yaml or .yml are YAML, everything else is JSON.
//  3. Environment variables prefixed GOPHAUTH_ (see parseEnv).
//  4. Command-line flags the user actually set (see RegisterFlags).
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds:
//
//	{
//	  "api_url": "https://api.example.com",
//	  "accounts_api_url": "https://accounts.example.com",
//	  "timeout": "30s",
//	  "retry_attempts": 3,
//	  "retry_delay": "1s",
//	  "retry_max_delay": "8s",
//	  "otp_code_ttl": "10m",
//	  "data_dir": "/home/ann/.config/gophauth",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// # Primary API
//
//   - type Config                           holds the settings
//   - func Load(*pflag.FlagSet) (*Config, error)
//   - func RegisterFlags(*pflag.FlagSet)
//   - func (*Config) LoadDefaults()
//   - func (*Config) Validate() error
package config
