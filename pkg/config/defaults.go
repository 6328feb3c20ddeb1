package config

// DefaultLogLevel is applied by LoggingConfig.Apply when Level is unset.
const DefaultLogLevel = "info"
