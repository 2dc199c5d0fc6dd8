// Package transcription orchestrates one speech-to-text request end to end.
//
// Transcriber.Transcribe probes the audio duration, runs the engine inside a
// fresh transient directory, locates and decodes its JSON output, and
// normalizes it into a Result. Every failure along the way becomes a Result
// with a Failure from the error taxonomy; nothing is returned as a raw error
// and nothing is retried.
package transcription
