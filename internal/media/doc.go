// Package media wraps ffmpeg for all codec work: decoding arbitrary audio
// inputs into the pipeline PCM format and encoding PCM buffers back to
// MP3 or WAV artifacts.
//
// Every clip entering the pipeline is decoded to one fixed sample rate and
// channel count so downstream buffer operations never need to resample.
package media
