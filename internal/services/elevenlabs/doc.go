// Package elevenlabs provides a text-to-speech client returning encoded
// MP3 audio for a given voice identity.
//
// Synthesis failures have no safe fallback: a silent stand-in would drop
// spoken content from the program, so errors propagate to the assembler,
// which aborts the run.
package elevenlabs
