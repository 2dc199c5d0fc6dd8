// Package config loads, normalizes, and validates voicescribe configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and overlays environment variables such as
// WHISPER_MODEL. This is the only place the process environment is consulted;
// the transcription orchestrator receives explicit options built from the
// resulting Config.
package config
