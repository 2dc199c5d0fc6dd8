package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"voicescribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Engine.TimeoutSeconds = 10
	cfgVal.Transcription.WorkDir = filepath.Join(base, "work")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "history", "history.db")
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithEngineScript installs a stub engine running script (see EngineStub)
// and points the config at it.
func WithEngineScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.Binary = WriteEngineStub(b.t, filepath.Join(b.baseDir, "bin"), script)
	}
}

// WithProbeOutput installs a stub ffprobe printing output and exiting with
// code, and points the config at it.
func WithProbeOutput(output string, code int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Probe.Binary = WriteProbeStub(b.t, filepath.Join(b.baseDir, "bin"), output, code)
	}
}

// WithHistory enables the result journal.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"whisper", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "path-bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Transcription.WorkDir)
}
