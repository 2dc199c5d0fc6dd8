// Package logging assembles structured slog loggers used by the voicescribe
// CLI and HTTP server.
//
// It owns the configurable console/JSON handlers and level plumbing, and
// exposes context-aware helpers so stage code automatically tags log lines
// with correlation IDs, stage names, and the audio path. Loggers write to
// stderr by default because stdout carries the transcription result.
package logging
