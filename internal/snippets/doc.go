// Package snippets materializes selected moments as standalone audio files.
//
// Each moment becomes one MP3 named "{1-based index}_{sanitized reason}.mp3"
// inside the source's output folder; the ordinal prefix makes names unique
// even when two reasons sanitize identically. After all extractions an
// aggregate metadata document is written exactly once.
package snippets
