package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Engine contains settings for the speech-to-text engine subprocess.
type Engine struct {
	Binary         string `toml:"binary" env:"WHISPER_BIN"`
	Model          string `toml:"model" env:"WHISPER_MODEL"`
	FP16           bool   `toml:"fp16" env:"WHISPER_FP16"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"VOICESCRIBE_ENGINE_TIMEOUT"`
	// LockFile serializes engine runs across processes when set.
	LockFile string `toml:"lock_file" env:"VOICESCRIBE_ENGINE_LOCK"`
}

// Probe contains settings for the duration probing utility.
type Probe struct {
	Binary         string `toml:"binary" env:"FFPROBE_BIN"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription contains per-deployment transcription policy.
type Transcription struct {
	// Language is the fixed hint passed to the engine and the fallback when
	// the engine output omits a language.
	Language string `toml:"language" env:"VOICESCRIBE_LANGUAGE"`
	// FailOnEmptyText makes an empty transcript exit non-zero.
	FailOnEmptyText bool `toml:"fail_on_empty_text" env:"VOICESCRIBE_FAIL_ON_EMPTY"`
	// WorkDir is the parent for transient engine output directories. Empty
	// means the system temp directory.
	WorkDir string `toml:"work_dir" env:"VOICESCRIBE_WORK_DIR"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"VOICESCRIBE_LOG_FORMAT"`
	Level  string `toml:"level" env:"VOICESCRIBE_LOG_LEVEL"`
	Dir    string `toml:"dir" env:"VOICESCRIBE_LOG_DIR"`
}

// History contains configuration for the optional result journal.
type History struct {
	Enabled bool   `toml:"enabled" env:"VOICESCRIBE_HISTORY"`
	Path    string `toml:"path" env:"VOICESCRIBE_HISTORY_PATH"`
}

// Server contains configuration for the HTTP transcription endpoint.
type Server struct {
	Bind         string `toml:"bind" env:"VOICESCRIBE_BIND"`
	APIToken     string `toml:"api_token" env:"VOICESCRIBE_API_TOKEN"`
	MaxUploadMiB int    `toml:"max_upload_mib"`
}

// Config encapsulates all configuration values for voicescribe.
//
// Configuration sections by subsystem:
//   - Engine: whisper binary, model, precision, timeout, cross-process lock
//   - Probe: ffprobe binary and timeout
//   - Transcription: language hint, empty-transcript policy, work directory
//   - Logging: log format, level, and optional log directory
//   - History: optional SQLite journal of results
//   - Server: HTTP bind address, bearer token, upload limit
type Config struct {
	Engine        Engine        `toml:"engine"`
	Probe         Probe         `toml:"probe"`
	Transcription Transcription `toml:"transcription"`
	Logging       Logging       `toml:"logging"`
	History       History       `toml:"history"`
	Server        Server        `toml:"server"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after the file so deployments can pin values such as
// WHISPER_MODEL without editing it. The returned config has all path fields
// expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("voicescribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EngineTimeout returns the hard wall-clock budget for one engine run.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the budget for one duration probe.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the HTTP upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMiB) << 20
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// expandBinary expands a binary setting only when it looks like a path, so
// bare names keep resolving through PATH.
func expandBinary(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || !strings.ContainsAny(value, `/\~`) {
		return value, nil
	}
	return expandPath(value)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
