package config

import (
	"fmt"

	"github.com/rf-tools/rtlamr2mqtt/pkg/errors"
)

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if err := validateGeneralConfig(&config.General); err != nil {
		return errors.NewValidationError("invalid general configuration", err)
	}

	if err := validateMQTTConfig(&config.MQTT); err != nil {
		return errors.NewValidationError("invalid mqtt configuration", err)
	}

	return nil
}

func validateGeneralConfig(config *GeneralConfig) error {
	if config.SleepFor < 0 {
		return errors.NewValidationError(
			fmt.Sprintf("sleep_for cannot be negative: %d", config.SleepFor),
			nil,
		)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	valid := false
	for _, level := range validLevels {
		if config.Verbosity == level {
			valid = true
			break
		}
	}
	if !valid {
		return errors.NewValidationError(
			fmt.Sprintf("invalid verbosity level: %s", config.Verbosity),
			nil,
		).WithContext("valid_levels", "debug, info, warn, error")
	}

	return nil
}

func validateMQTTConfig(config *MQTTConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return errors.NewValidationError(
			fmt.Sprintf("invalid port number: %d", config.Port),
			nil,
		).WithContext("valid_range", "1-65535")
	}

	if config.BaseTopic == "" {
		return errors.NewValidationError("base topic cannot be empty", nil)
	}

	if config.TLSEnabled && !config.IsTLSInsecure() && config.TLSCA == "" {
		return errors.NewValidationError("tls_ca is required when certificate verification is enabled", nil)
	}

	return nil
}
