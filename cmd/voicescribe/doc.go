// Package main hosts the voicescribe CLI entrypoint and command graph.
//
// "transcribe" prints exactly one JSON object on stdout and exits 0 when the
// result carries text, 1 otherwise. Logs always go to stderr. The remaining
// commands (doctor, history, serve, config) wrap the internal packages
// without adding behaviour of their own.
package main
