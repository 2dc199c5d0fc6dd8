package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if strings.TrimSpace(c.Engine.Binary) == "" {
		return errors.New("engine.binary must be set")
	}
	if strings.TrimSpace(c.Engine.Model) == "" {
		return errors.New("engine.model must be set")
	}
	if c.Engine.TimeoutSeconds <= 0 {
		return errors.New("engine.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateProbe() error {
	if strings.TrimSpace(c.Probe.Binary) == "" {
		return errors.New("probe.binary must be set")
	}
	if c.Probe.TimeoutSeconds <= 0 || c.Probe.TimeoutSeconds > maxProbeTimeout {
		return fmt.Errorf("probe.timeout_seconds must be between 1 and %d", maxProbeTimeout)
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if strings.TrimSpace(c.Transcription.Language) == "" {
		return errors.New("transcription.language must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.MaxUploadMiB < 0 {
		return errors.New("server.max_upload_mib must be positive")
	}
	return nil
}
