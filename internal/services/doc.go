// Package services defines shared utilities consumed by the transcription
// orchestrator and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, audio paths, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and KindOf which folds
//     any wrapped error into the transcription failure taxonomy.
//
// Use these helpers when wiring new stage logic so error classification and
// log fields stay uniform across the CLI and the HTTP server.
package services
