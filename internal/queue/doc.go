// Package queue persists pipeline items in SQLite and exposes helpers for
// driving their lifecycle.
//
// One queue item tracks one speaker's combined audio source from pending
// through transcription, moment selection, and snippet extraction to
// completed or failed. Transcripts and selected moments are stored as JSON
// columns so later stages can resume without re-running earlier ones.
//
// The database is transient storage for in-flight work rather than a
// long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
