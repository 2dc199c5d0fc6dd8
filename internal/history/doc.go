// Package history keeps an optional SQLite journal of transcription results.
//
// The journal is written by the CLI and the HTTP server after a request
// completes; the transcription pipeline itself never reads or writes it.
package history
