// Package transcript defines the timestamped segment model produced by
// speech-to-text and the Transcriber contract the pipeline consumes.
package transcript
