package config

import (
	"fmt"
	"strings"

	"voicescribe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	if err := c.normalizeProbe(); err != nil {
		return err
	}
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.normalizeServer()
	return nil
}

func (c *Config) normalizeEngine() error {
	var err error
	if strings.TrimSpace(c.Engine.Binary) == "" {
		c.Engine.Binary = defaultEngineBinary
	}
	if c.Engine.Binary, err = expandBinary(c.Engine.Binary); err != nil {
		return fmt.Errorf("engine.binary: %w", err)
	}
	c.Engine.Model = strings.TrimSpace(c.Engine.Model)
	if c.Engine.Model == "" {
		c.Engine.Model = defaultEngineModel
	}
	if strings.TrimSpace(c.Engine.LockFile) != "" {
		if c.Engine.LockFile, err = expandPath(strings.TrimSpace(c.Engine.LockFile)); err != nil {
			return fmt.Errorf("engine.lock_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeProbe() error {
	var err error
	if strings.TrimSpace(c.Probe.Binary) == "" {
		c.Probe.Binary = defaultProbeBinary
	}
	if c.Probe.Binary, err = expandBinary(c.Probe.Binary); err != nil {
		return fmt.Errorf("probe.binary: %w", err)
	}
	if c.Probe.TimeoutSeconds > maxProbeTimeout {
		c.Probe.TimeoutSeconds = maxProbeTimeout
	}
	return nil
}

func (c *Config) normalizeTranscription() error {
	raw := strings.TrimSpace(c.Transcription.Language)
	if raw == "" {
		raw = defaultLanguage
	}
	canonical := language.Canonical(raw)
	if canonical == "" {
		return fmt.Errorf("transcription.language: unrecognized language %q", raw)
	}
	c.Transcription.Language = canonical

	if strings.TrimSpace(c.Transcription.WorkDir) != "" {
		var err error
		if c.Transcription.WorkDir, err = expandPath(strings.TrimSpace(c.Transcription.WorkDir)); err != nil {
			return fmt.Errorf("transcription.work_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	var err error
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		var err error
		if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.MaxUploadMiB == 0 {
		c.Server.MaxUploadMiB = defaultServerMaxUploadMiB
	}
}
