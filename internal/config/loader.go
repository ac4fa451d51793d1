package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType classifies configuration failures for diagnostics.
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "parsing"
	ErrValidation ConfigErrorType = "validation"
	ErrCarGroups  ConfigErrorType = "car_groups"
)

// ConfigError is a diagnostic error type returned by LoadConfig to aid
// debugging. It wraps a ConfigErrorType and an underlying error.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig loads and validates the collector configuration from the
// environment. A .env file in the working directory is honored but never
// required, and never overrides variables already set.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.normalize()

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	// An unset mapping file means every car lands in the default group.
	// A set-but-unreadable one is a configuration error, not a silent
	// empty mapping.
	if cfg.CarGroupsFile != "" {
		groups, err := LoadCarGroups(cfg.CarGroupsFile)
		if err != nil {
			return nil, &ConfigError{
				Type:    ErrCarGroups,
				Message: fmt.Sprintf("loading car groups from %q", cfg.CarGroupsFile),
				Err:     err,
			}
		}
		cfg.CarGroups = groups
	} else {
		cfg.CarGroups = map[string]string{}
	}

	return &cfg, nil
}
