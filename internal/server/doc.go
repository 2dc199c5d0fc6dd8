// Package server exposes transcription over HTTP.
//
// POST /v1/transcriptions accepts a multipart upload (field "file", optional
// "model" and "language"), stores it in a per-request temp directory that is
// removed when the handler returns, and answers with the same JSON object the
// CLI prints. GET /healthz is unauthenticated; the transcription route
// requires a bearer token when one is configured.
package server
