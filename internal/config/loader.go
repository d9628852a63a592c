// loader.go implements the configuration loading lifecycle:
//
//  1. Load a .env file via godotenv (non-fatal if absent).
//  2. Populate the Config struct from the environment via envconfig.
//  3. Validate the struct with go-playground/validator.
//
// Postgres-backend deployments additionally require DATABASE_URL, which is
// enforced here rather than by a struct tag because the requirement is
// conditional on the selected backend.
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
	// ErrParsing indicates a failure parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed struct validation.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)

// ConfigError is a diagnostic error type returned by Load.
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

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load builds the process configuration from the environment. A .env file
// in the working directory seeds missing variables but never overrides
// ones already set.
func Load() (*Config, error) {
	// Best effort; local convenience only.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{Type: ErrParsing, Message: "processing environment", Err: err}
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies the struct validation rules plus the cross-field
// backend/credential constraint. Exposed separately so tests can validate
// hand-built configs.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return &ConfigError{Type: ErrValidation, Message: "invalid configuration", Err: err}
	}

	if cfg.Store.Backend == "postgres" && cfg.Store.DatabaseURL.Unmask() == "" {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "DATABASE_URL is required when STORE_BACKEND=postgres",
		}
	}
	return nil
}
