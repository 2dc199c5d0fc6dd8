package transcription

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"voicescribe/internal/services"
)

// Request is the immutable input of one transcription. Zero fields fall back
// to the Transcriber's options.
type Request struct {
	AudioPath string
	Model     string
	Language  string
	Task      string
	Timeout   time.Duration
}

// Failure describes why a transcription produced no text.
type Failure struct {
	Kind   services.FailureKind
	Reason string
}

// Result is the outcome of one transcription: either text (possibly empty)
// with a language, or a Failure. Seconds is nil when no duration is known.
type Result struct {
	ID       string
	Model    string
	Text     *string
	Language string
	Seconds  *float64
	Err      *Failure
	Elapsed  time.Duration
}

// Succeeded reports whether the result carries text.
func (r Result) Succeeded() bool {
	return r.Err == nil && r.Text != nil
}

type successPayload struct {
	Text    string   `json:"text"`
	Lang    string   `json:"lang"`
	Seconds *float64 `json:"seconds"`
}

type failurePayload struct {
	Error   string   `json:"error"`
	Text    *string  `json:"text"`
	Lang    *string  `json:"lang"`
	Seconds *float64 `json:"seconds"`
}

// MarshalJSON renders the result as the public output object. Non-ASCII text
// and HTML-significant characters are written unescaped; an enclosing
// encoder must also disable HTML escaping to keep them that way.
func (r Result) MarshalJSON() ([]byte, error) {
	var payload any
	if r.Succeeded() {
		payload = successPayload{Text: *r.Text, Lang: r.Language, Seconds: r.Seconds}
	} else {
		reason := "unknown error"
		if r.Err != nil && r.Err.Reason != "" {
			reason = r.Err.Reason
		}
		payload = failurePayload{Error: reason, Seconds: r.Seconds}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ExitCode maps a result onto the process exit status: 0 when text is
// present, 1 otherwise. With failOnEmpty an empty transcript also exits 1.
func ExitCode(r Result, failOnEmpty bool) int {
	if !r.Succeeded() {
		return 1
	}
	if failOnEmpty && *r.Text == "" {
		return 1
	}
	return 0
}

// Failed builds a failure result.
func Failed(kind services.FailureKind, reason string, seconds *float64) Result {
	return Result{Err: &Failure{Kind: kind, Reason: reason}, Seconds: seconds}
}

// FailedFromError builds a failure result classified by the error's marker.
func FailedFromError(err error, seconds *float64) Result {
	return Failed(services.KindOf(err), err.Error(), seconds)
}

func roundSeconds(v float64) float64 {
	return math.Round(v*100) / 100
}
