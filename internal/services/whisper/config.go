package whisper

import "time"

// Config captures runtime settings for engine invocations.
type Config struct {
	// Binary is the whisper CLI executable (bare name or path).
	Binary string
	// Model is the default model (e.g., "base", "medium", "large-v3").
	Model string
	// Language is the fixed language hint passed to every run.
	Language string
	// FP16 enables half precision. Off by default so CPU-only hosts work.
	FP16 bool
	// Timeout is the hard wall-clock budget for one run.
	Timeout time.Duration
	// LockFile, when set, serializes runs across processes.
	LockFile string
}

// Engine invocation constants.
const (
	DefaultBinary   = "whisper"
	DefaultModel    = "base"
	DefaultTimeout  = 300 * time.Second
	Task            = "transcribe"
	OutputFormat    = "json"
	OutputExtension = ".json"

	// stderrTailBytes bounds the diagnostic text kept from a failed run.
	stderrTailBytes = 4096
	// waitDelay bounds how long Wait blocks on inherited pipes after a kill.
	waitDelay = 5 * time.Second
)
