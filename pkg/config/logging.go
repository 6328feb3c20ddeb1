package config

import (
	logging "github.com/ipfs/go-log/v2"
)

// LoggingConfig sets the subsystem log level shared by every pkg/chain,
// pkg/manager, pkg/payments, etc. logger obtained via logging.Logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error" toml:"level,omitempty" flag:"log-level"`
}

func (l LoggingConfig) Validate() error {
	return validateConfig(l)
}

// Apply sets the global go-log level to the configured value, defaulting to
// info when unset.
func (l LoggingConfig) Apply() error {
	level := l.Level
	if level == "" {
		level = DefaultLogLevel
	}
	return logging.SetLogLevel("*", level)
}
