// Package config implements the wire-level configuration layer feeding
// pkg/facade: a file/env config struct carrying mapstructure and validate
// tags, loaded through viper, validated through go-playground/validator,
// and converted into a facade.Config via ToAppConfig.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Validatable is implemented by every config struct loaded through Load.
type Validatable interface {
	Validate() error
}

var validate = validator.New()

// validateConfig runs struct-tag validation over cfg via validator/v10.
func validateConfig(cfg interface{}) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// Load unmarshals the active viper configuration (file, env, and flags
// already bound by the caller) into a T and validates it.
func Load[T Validatable]() (T, error) {
	var out T
	if err := viper.Unmarshal(&out); err != nil {
		return out, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}
