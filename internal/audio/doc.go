// Package audio provides an in-memory PCM buffer used by the snippet and
// assembly pipelines.
//
// Buffers hold interleaved signed 16-bit samples at a fixed sample rate and
// channel count. All time arithmetic is in whole milliseconds; callers
// converting from fractional seconds truncate toward zero.
package audio
