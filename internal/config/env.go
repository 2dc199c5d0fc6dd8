package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// applyEnv overlays environment variables named by the `env` struct tags.
// Unset variables leave the file or default value untouched.
func applyEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}

// EnvDescription lists the supported environment overrides, one per line.
func EnvDescription() (string, error) {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return "", fmt.Errorf("describe environment: %w", err)
	}
	return text, nil
}
