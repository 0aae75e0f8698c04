// Package whisper wraps the whisper CLI for timestamped transcription.
//
// The service invokes the locally installed whisper binary with JSON output
// enabled and parses the result into transcript segments. The CLI is treated
// as a black box; any non-zero exit or unparseable output is surfaced as an
// error for the transcribe stage to record.
package whisper
