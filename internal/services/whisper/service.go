package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"voicescribe/internal/enginelock"
	"voicescribe/internal/logging"
	"voicescribe/internal/services"
)

// Executor abstracts command execution for testability. Run returns the tail
// of the command's standard error alongside any execution error.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stderr string, err error)
}

// Option configures the service.
type Option func(*Service)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(s *Service) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service runs the whisper CLI against one audio file at a time.
type Service struct {
	cfg    Config
	exec   Executor
	logger *slog.Logger
}

// NewService creates an engine service with the given configuration.
func NewService(cfg Config, opts ...Option) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	s := &Service{
		cfg:    cfg,
		exec:   processExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "whisper")
	return s
}

// Model returns the configured default model name.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Timeout returns the per-run wall-clock budget.
func (s *Service) Timeout() time.Duration {
	return s.cfg.Timeout
}

// Job describes one engine run. Zero fields fall back to the service
// configuration.
type Job struct {
	AudioPath string
	Model     string
	Language  string
	OutputDir string
	Timeout   time.Duration
}

// Invocation records the observable outcome of one engine run.
type Invocation struct {
	OutputDir string
	Model     string
	ExitCode  int
	Stderr    string
	Elapsed   time.Duration
}

// Invoke runs the engine on job.AudioPath, writing its structured output into
// job.OutputDir.
//
// Only a clean exit returns a nil error. A run that outlives the timeout is
// killed together with every process it spawned and reported as
// services.ErrEngineTimeout; any other failure, including a non-zero exit
// status, is services.ErrEngineFailed carrying the tail of stderr.
func (s *Service) Invoke(ctx context.Context, job Job) (Invocation, error) {
	inv := Invocation{OutputDir: job.OutputDir, Model: strings.TrimSpace(job.Model)}
	if inv.Model == "" {
		inv.Model = s.cfg.Model
	}
	language := strings.TrimSpace(job.Language)
	if language == "" {
		language = s.cfg.Language
	}
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = s.cfg.Timeout
	}
	if strings.TrimSpace(job.AudioPath) == "" {
		return inv, services.Wrap(services.ErrInputNotFound, "", "", "audio path required", nil)
	}
	if strings.TrimSpace(job.OutputDir) == "" {
		return inv, services.Wrap(services.ErrEngineFailed, "", "", "output directory required", nil)
	}

	if s.cfg.LockFile != "" {
		release, err := enginelock.Acquire(ctx, s.cfg.LockFile)
		if err != nil {
			return inv, services.Wrap(services.ErrEngineFailed, "", "", "acquire engine lock", err)
		}
		defer release()
	}

	logger := logging.WithContext(ctx, s.logger)
	args := s.buildArgs(job.AudioPath, inv.Model, language, job.OutputDir)
	logger.Debug("starting engine",
		logging.String("binary", s.cfg.Binary),
		logging.String("model", inv.Model),
		logging.String("language", language),
		logging.Duration("timeout", timeout),
	)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stderr, err := s.exec.Run(runCtx, s.cfg.Binary, args)
	inv.Elapsed = time.Since(start)
	inv.Stderr = stderr

	if err == nil {
		logger.Info("engine finished",
			logging.String("model", inv.Model),
			logging.Duration("elapsed", inv.Elapsed),
		)
		return inv, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		inv.ExitCode = exitErr.ExitCode()
	}

	switch {
	case ctx.Err() != nil:
		return inv, services.Wrap(services.ErrEngineFailed, "", "", "engine interrupted", ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		logger.Warn("engine timed out", logging.Duration("timeout", timeout))
		return inv, fmt.Errorf("%w after %s", services.ErrEngineTimeout, timeout)
	case inv.ExitCode == 0:
		// The process never ran (missing binary, permission denied).
		return inv, services.Wrap(services.ErrEngineFailed, "", "", "start engine", err)
	}
	logger.Warn("engine exited with error",
		logging.Int("exit_code", inv.ExitCode),
		logging.Error(err),
	)
	return inv, services.Wrap(services.ErrEngineFailed, "", "", diagnostic(stderr), nil)
}

// buildArgs constructs the whisper CLI arguments.
func (s *Service) buildArgs(audioPath, model, language, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", model,
	}
	if lang := strings.TrimSpace(language); lang != "" {
		args = append(args, "--language", lang)
	}
	args = append(args,
		"--task", Task,
		"--output_format", OutputFormat,
		"--output_dir", outputDir,
		"--fp16", fp16Flag(s.cfg.FP16),
	)
	return args
}

func fp16Flag(enabled bool) string {
	if enabled {
		return "True"
	}
	return "False"
}

// diagnostic picks the engine's own words for the failure, falling back to a
// placeholder when it printed nothing.
func diagnostic(stderr string) string {
	if text := strings.TrimSpace(stderr); text != "" {
		return text
	}
	return "unknown error"
}
