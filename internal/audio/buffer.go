package audio

import (
	"errors"
	"fmt"
)

// normalizeHeadroom is the fraction of full scale left unused by Normalize
// so peak samples do not clip after encoding (roughly -0.1 dBFS).
const normalizeHeadroom = 0.9886

// Buffer is an in-memory PCM clip: interleaved signed 16-bit samples.
type Buffer struct {
	sampleRate int
	channels   int
	samples    []int16
}

// New wraps interleaved samples in a Buffer. The sample slice is retained,
// not copied.
func New(sampleRate, channels int, samples []int16) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio buffer: invalid sample rate %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("audio buffer: invalid channel count %d", channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("audio buffer: %d samples not divisible by %d channels", len(samples), channels)
	}
	return &Buffer{sampleRate: sampleRate, channels: channels, samples: samples}, nil
}

// Silence returns a buffer of durationMs milliseconds of digital silence.
func Silence(sampleRate, channels, durationMs int) *Buffer {
	if durationMs < 0 {
		durationMs = 0
	}
	frames := sampleRate * durationMs / 1000
	return &Buffer{
		sampleRate: sampleRate,
		channels:   channels,
		samples:    make([]int16, frames*channels),
	}
}

// SampleRate returns the buffer's sample rate in Hz.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Channels returns the buffer's channel count.
func (b *Buffer) Channels() int { return b.channels }

// Samples returns the backing interleaved sample slice.
func (b *Buffer) Samples() []int16 { return b.samples }

// Frames returns the number of per-channel sample frames.
func (b *Buffer) Frames() int { return len(b.samples) / b.channels }

// DurationMs returns the clip length in whole milliseconds, truncated.
func (b *Buffer) DurationMs() int {
	return int(int64(b.Frames()) * 1000 / int64(b.sampleRate))
}

// Slice returns a copy of the clip between startMs and endMs. Bounds are
// clamped to the clip; an inverted range yields an empty buffer.
func (b *Buffer) Slice(startMs, endMs int) *Buffer {
	startFrame := b.frameAt(startMs)
	endFrame := b.frameAt(endMs)
	if endFrame < startFrame {
		endFrame = startFrame
	}
	out := make([]int16, (endFrame-startFrame)*b.channels)
	copy(out, b.samples[startFrame*b.channels:endFrame*b.channels])
	return &Buffer{sampleRate: b.sampleRate, channels: b.channels, samples: out}
}

func (b *Buffer) frameAt(ms int) int {
	if ms < 0 {
		ms = 0
	}
	frame := int(int64(ms) * int64(b.sampleRate) / 1000)
	if max := b.Frames(); frame > max {
		frame = max
	}
	return frame
}

// Append concatenates other onto b in place. Both buffers must share the
// same sample rate and channel count; the pipeline decodes everything to one
// format up front, so a mismatch is a caller bug.
func (b *Buffer) Append(other *Buffer) error {
	if other == nil {
		return errors.New("audio append: nil buffer")
	}
	if other.sampleRate != b.sampleRate || other.channels != b.channels {
		return fmt.Errorf(
			"audio append: format mismatch (%dHz/%dch vs %dHz/%dch)",
			b.sampleRate, b.channels, other.sampleRate, other.channels,
		)
	}
	b.samples = append(b.samples, other.samples...)
	return nil
}

// Concat joins clips in order into a new buffer with the given format.
// Clips must all match the format.
func Concat(sampleRate, channels int, clips ...*Buffer) (*Buffer, error) {
	out := Silence(sampleRate, channels, 0)
	for i, clip := range clips {
		if err := out.Append(clip); err != nil {
			return nil, fmt.Errorf("concat clip %d: %w", i, err)
		}
	}
	return out, nil
}

// Normalize scales all samples so the peak sits just under full scale.
// A silent buffer is returned unchanged.
func (b *Buffer) Normalize() {
	peak := 0
	for _, s := range b.samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return
	}
	gain := normalizeHeadroom * 32767.0 / float64(peak)
	if gain == 1 {
		return
	}
	for i, s := range b.samples {
		scaled := float64(s) * gain
		switch {
		case scaled > 32767:
			b.samples[i] = 32767
		case scaled < -32768:
			b.samples[i] = -32768
		default:
			b.samples[i] = int16(scaled)
		}
	}
}
