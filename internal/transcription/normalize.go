package transcription

import (
	"strings"

	"voicescribe/internal/services/whisper"
)

// normalize turns a decoded engine document into a successful result.
// probed is the prober's duration when known; otherwise the end of the last
// segment is used. Non-positive durations are treated as unknown.
func normalize(doc whisper.Document, probed *float64, fallbackLanguage string) Result {
	text := strings.TrimSpace(doc.Text)
	language := strings.TrimSpace(doc.Language)
	if language == "" {
		language = fallbackLanguage
	}

	var seconds *float64
	switch {
	case probed != nil && *probed > 0:
		v := roundSeconds(*probed)
		seconds = &v
	default:
		if end, ok := doc.LastSegmentEnd(); ok && end > 0 {
			v := roundSeconds(end)
			seconds = &v
		}
	}

	return Result{Text: &text, Language: language, Seconds: seconds}
}
