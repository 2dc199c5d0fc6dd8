// Package ffprobe obtains audio durations from the ffprobe utility.
//
// This package has no voicescribe-specific dependencies and could be
// extracted as a standalone library.
//
// Duration is best-effort: it never returns an error, only a value and a
// found flag, because duration is an enrichment that must not block a
// transcription. Probes are bounded by MaxTimeout.
package ffprobe
