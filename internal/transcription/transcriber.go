package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"voicescribe/internal/config"
	"voicescribe/internal/logging"
	"voicescribe/internal/media/ffprobe"
	"voicescribe/internal/services"
	"voicescribe/internal/services/whisper"
)

// Orchestration stages, stamped on the context for logging.
const (
	StageProbing  = "probing"
	StageInvoking = "invoking"
	StageLocating = "locating"
	StageParsing  = "parsing"
)

const workDirPattern = "voicescribe-*"

// DurationProber reports the playback length of an audio file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, bool)
}

// Engine runs the speech-to-text engine for one job.
type Engine interface {
	Invoke(ctx context.Context, job whisper.Job) (whisper.Invocation, error)
}

// Options is the explicit configuration a Transcriber runs with. It is built
// once by the caller; the Transcriber never consults the environment.
type Options struct {
	EngineBinary string
	Model        string
	Language     string
	FP16         bool
	Timeout      time.Duration
	LockFile     string

	ProbeBinary  string
	ProbeTimeout time.Duration

	// WorkDir is the parent of per-request transient directories. Empty
	// means the system temp directory.
	WorkDir string
}

// OptionsFromConfig derives Options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		EngineBinary: cfg.Engine.Binary,
		Model:        cfg.Engine.Model,
		Language:     cfg.Transcription.Language,
		FP16:         cfg.Engine.FP16,
		Timeout:      cfg.EngineTimeout(),
		LockFile:     cfg.Engine.LockFile,
		ProbeBinary:  cfg.Probe.Binary,
		ProbeTimeout: cfg.ProbeTimeout(),
		WorkDir:      cfg.Transcription.WorkDir,
	}
}

// Option customizes a Transcriber.
type Option func(*Transcriber)

// WithProber replaces the ffprobe-backed duration prober.
func WithProber(p DurationProber) Option {
	return func(t *Transcriber) {
		if p != nil {
			t.prober = p
		}
	}
}

// WithEngine replaces the whisper-backed engine.
func WithEngine(e Engine) Option {
	return func(t *Transcriber) {
		if e != nil {
			t.engine = e
		}
	}
}

// WithLogger sets the logger used for orchestration events.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transcriber) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Transcriber turns audio files into Results. It holds no per-request state
// and is safe for concurrent use.
type Transcriber struct {
	opts   Options
	prober DurationProber
	engine Engine
	logger *slog.Logger
}

// New constructs a Transcriber.
func New(opts Options, options ...Option) *Transcriber {
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = whisper.DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = whisper.DefaultTimeout
	}
	t := &Transcriber{opts: opts, logger: logging.NewNop()}
	for _, opt := range options {
		opt(t)
	}
	if t.prober == nil {
		t.prober = ffprobe.NewProber(opts.ProbeBinary, opts.ProbeTimeout)
	}
	if t.engine == nil {
		t.engine = whisper.NewService(whisper.Config{
			Binary:   opts.EngineBinary,
			Model:    opts.Model,
			Language: opts.Language,
			FP16:     opts.FP16,
			Timeout:  opts.Timeout,
			LockFile: opts.LockFile,
		}, whisper.WithLogger(t.logger))
	}
	t.logger = logging.NewComponentLogger(t.logger, "transcription")
	return t
}

// Options returns the options the Transcriber was built with.
func (t *Transcriber) Options() Options {
	return t.opts
}

// Transcribe runs one request to completion. It never returns an error:
// every failure is reported through Result.Err, and a failure after probing
// carries the probed duration unrounded.
func (t *Transcriber) Transcribe(ctx context.Context, req Request) Result {
	started := time.Now()
	req = t.resolve(req)

	id, ok := services.RequestIDFromContext(ctx)
	if !ok {
		id = uuid.NewString()
		ctx = services.WithRequestID(ctx, id)
	}
	ctx = services.WithAudioPath(ctx, req.AudioPath)
	logger := logging.WithContext(ctx, t.logger)

	result := t.run(ctx, req)
	result.ID = id
	result.Model = req.Model
	result.Elapsed = time.Since(started)

	if result.Err != nil {
		logger.Warn("transcription failed",
			logging.String(logging.FieldFailureKind, string(result.Err.Kind)),
			logging.String("reason", result.Err.Reason),
			logging.Duration("elapsed", result.Elapsed),
		)
		return result
	}
	attrs := []logging.Attr{
		logging.String("model", req.Model),
		logging.String("language", result.Language),
		logging.Int("chars", len([]rune(*result.Text))),
		logging.Duration("elapsed", result.Elapsed),
	}
	if result.Seconds != nil {
		attrs = append(attrs, logging.Float64("seconds", *result.Seconds))
	}
	logger.Info("transcription completed", logging.Args(attrs...)...)
	return result
}

func (t *Transcriber) resolve(req Request) Request {
	req.AudioPath = strings.TrimSpace(req.AudioPath)
	if strings.TrimSpace(req.Model) == "" {
		req.Model = t.opts.Model
	}
	if strings.TrimSpace(req.Language) == "" {
		req.Language = t.opts.Language
	}
	if strings.TrimSpace(req.Task) == "" {
		req.Task = whisper.Task
	}
	if req.Timeout <= 0 {
		req.Timeout = t.opts.Timeout
	}
	return req
}

func (t *Transcriber) run(ctx context.Context, req Request) Result {
	if req.AudioPath == "" {
		return FailedFromError(services.Wrap(services.ErrInputNotFound, "", "", "audio path required", nil), nil)
	}
	if info, err := os.Stat(req.AudioPath); err != nil || info.IsDir() {
		return FailedFromError(services.Wrap(services.ErrInputNotFound, "", "", req.AudioPath, nil), nil)
	}
	if req.Task != whisper.Task {
		return FailedFromError(services.Wrap(services.ErrEngineFailed, "", "", fmt.Sprintf("unsupported task %q", req.Task), nil), nil)
	}

	var probed *float64
	if seconds, ok := t.prober.Duration(services.WithStage(ctx, StageProbing), req.AudioPath); ok && seconds > 0 {
		probed = &seconds
	}

	workDir, cleanup, err := t.makeWorkDir(ctx)
	if err != nil {
		return FailedFromError(err, probed)
	}
	defer cleanup()

	_, err = t.engine.Invoke(services.WithStage(ctx, StageInvoking), whisper.Job{
		AudioPath: req.AudioPath,
		Model:     req.Model,
		Language:  req.Language,
		OutputDir: workDir,
		Timeout:   req.Timeout,
	})
	if err != nil {
		return FailedFromError(err, probed)
	}

	outputPath, err := whisper.LocateOutput(workDir, req.AudioPath)
	if err != nil {
		return FailedFromError(err, probed)
	}

	doc, err := whisper.LoadDocument(outputPath)
	if err != nil {
		return FailedFromError(err, probed)
	}

	return normalize(doc, probed, req.Language)
}

// makeWorkDir creates a fresh transient directory and returns a cleanup func
// that removes it and everything the engine wrote there.
func (t *Transcriber) makeWorkDir(ctx context.Context) (string, func(), error) {
	parent := t.opts.WorkDir
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return "", nil, services.Wrap(services.ErrEngineFailed, "", "", "create work directory", err)
		}
	}
	dir, err := os.MkdirTemp(parent, workDirPattern)
	if err != nil {
		return "", nil, services.Wrap(services.ErrEngineFailed, "", "", "create work directory", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logging.WithContext(ctx, t.logger).Warn("failed to remove work directory",
				logging.String("dir", dir),
				logging.Error(err),
			)
		}
	}
	return dir, cleanup, nil
}
