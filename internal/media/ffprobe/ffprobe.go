package ffprobe

import (
	"context"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultBinary is the probing executable resolved through PATH.
const DefaultBinary = "ffprobe"

// MaxTimeout bounds a single duration probe.
const MaxTimeout = 10 * time.Second

// Prober reports audio durations through ffprobe. The zero value probes with
// DefaultBinary and MaxTimeout.
type Prober struct {
	Binary  string
	Timeout time.Duration
}

// NewProber constructs a Prober. Timeouts outside (0, MaxTimeout] fall back
// to MaxTimeout when probing.
func NewProber(binary string, timeout time.Duration) Prober {
	return Prober{Binary: binary, Timeout: timeout}
}

// Duration implements the duration lookup for the configured binary.
func (p Prober) Duration(ctx context.Context, path string) (float64, bool) {
	return Duration(ctx, p.Binary, path, p.Timeout)
}

// Duration asks ffprobe for the container duration of path in seconds.
//
// The second return value is false whenever no duration could be obtained:
// a missing binary, a non-zero exit, empty or unparsable output (ffprobe
// prints "N/A" for streams without timing), a non-finite or negative value,
// or the timeout firing. Callers treat absence as unknown rather than as a
// failure.
func Duration(ctx context.Context, binary, path string, timeout time.Duration) (float64, bool) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	if strings.TrimSpace(path) == "" {
		return 0, false
	}
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, binary, //nolint:gosec
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	cmd.WaitDelay = time.Second
	output, err := cmd.Output()
	if err != nil {
		return 0, false
	}
	return parseDuration(string(output))
}

func parseDuration(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}
	// Multi-line output means ffprobe printed more than the requested entry;
	// the duration is the first line.
	if idx := strings.IndexAny(cleaned, "\r\n"); idx >= 0 {
		cleaned = strings.TrimSpace(cleaned[:idx])
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, false
	}
	return value, true
}
