// Package whisper drives the whisper speech-to-text CLI.
//
// Service.Invoke runs one engine process per audio file with a fixed argument
// set (JSON output, explicit language hint, fp16 disabled unless configured)
// under a hard wall-clock timeout. On Unix the engine runs in its own process
// group so expiry or cancellation kills every process it started. LocateOutput
// and LoadDocument find and decode the JSON the engine leaves behind.
package whisper
