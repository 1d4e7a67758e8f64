// loader.go implements the configuration loading lifecycle:
//
//  1. Load a .env file via godotenv (non-fatal if absent).
//  2. Use envconfig to process struct tags and populate the Config struct.
//  3. Validate the struct using go-playground/validator.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrParsing indicates a failure when parsing environment variable
	// values into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed struct validation.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)

// ConfigError is a diagnostic error type returned by Load to aid debugging.
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

// Load populates and validates the configuration from the environment.
// A .env file is loaded first when present so local runs need no exported
// variables; real deployments provide everything via the environment.
func Load() (*Config, error) {
	// Ignore the error: a missing .env file is the normal deployed state.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment variables",
			Err:     err,
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration failed validation",
			Err:     err,
		}
	}

	if cfg.OutOfHours.EndHour <= cfg.OutOfHours.StartHour {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: fmt.Sprintf("out-of-hours window invalid: start=%d end=%d", cfg.OutOfHours.StartHour, cfg.OutOfHours.EndHour),
		}
	}

	return &cfg, nil
}
