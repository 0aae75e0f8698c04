package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"loom/internal/audio"
)

// FFmpegCommand is the default ffmpeg executable name.
const FFmpegCommand = "ffmpeg"

// Runner executes an external command with optional stdin, returning stdout.
// Injectable for tests.
type Runner func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)

// Codec decodes and encodes audio through ffmpeg at a fixed PCM format.
type Codec struct {
	ffmpegBinary string
	sampleRate   int
	channels     int
	runner       Runner
}

// NewCodec builds a codec pinned to the given PCM format.
func NewCodec(ffmpegBinary string, sampleRate, channels int) *Codec {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Codec{
		ffmpegBinary: ffmpegBinary,
		sampleRate:   sampleRate,
		channels:     channels,
		runner:       runCommand,
	}
}

// WithRunner sets a custom command runner (for testing).
func (c *Codec) WithRunner(runner Runner) {
	if runner != nil {
		c.runner = runner
	}
}

// SampleRate returns the pinned sample rate in Hz.
func (c *Codec) SampleRate() int { return c.sampleRate }

// Channels returns the pinned channel count.
func (c *Codec) Channels() int { return c.channels }

// Decode reads any audio file ffmpeg understands and returns it as a PCM
// buffer in the codec's format.
func (c *Codec) Decode(ctx context.Context, path string) (*audio.Buffer, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", fmt.Sprintf("%d", c.channels),
		"-ar", fmt.Sprintf("%d", c.sampleRate),
		"pipe:1",
	}
	raw, err := c.runner(ctx, c.ffmpegBinary, args, nil)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return c.bufferFromRaw(raw)
}

// DecodeBytes decodes an in-memory encoded clip (e.g. MP3 bytes returned by
// a synthesis API). format is the ffmpeg demuxer name, such as "mp3".
func (c *Codec) DecodeBytes(ctx context.Context, data []byte, format string) (*audio.Buffer, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", format,
		"-i", "pipe:0",
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", fmt.Sprintf("%d", c.channels),
		"-ar", fmt.Sprintf("%d", c.sampleRate),
		"pipe:1",
	}
	raw, err := c.runner(ctx, c.ffmpegBinary, args, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s bytes: %w", format, err)
	}
	return c.bufferFromRaw(raw)
}

// EncodeMP3 writes the buffer to path as MP3 at the given bitrate ("192k").
func (c *Codec) EncodeMP3(ctx context.Context, buf *audio.Buffer, path, bitrate string) error {
	args := append(c.rawInputArgs(), "-b:a", bitrate, "-f", "mp3", path)
	if _, err := c.runner(ctx, c.ffmpegBinary, args, rawFromBuffer(buf)); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// EncodeWAV writes the buffer to path as PCM WAV.
func (c *Codec) EncodeWAV(ctx context.Context, buf *audio.Buffer, path string) error {
	args := append(c.rawInputArgs(), "-c:a", "pcm_s16le", "-f", "wav", path)
	if _, err := c.runner(ctx, c.ffmpegBinary, args, rawFromBuffer(buf)); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ConcatToWAV decodes each input in order, joins them, and writes one WAV.
func (c *Codec) ConcatToWAV(ctx context.Context, inputs []string, path string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concat %s: no inputs", filepath.Base(path))
	}
	combined := audio.Silence(c.sampleRate, c.channels, 0)
	for _, input := range inputs {
		clip, err := c.Decode(ctx, input)
		if err != nil {
			return err
		}
		if err := combined.Append(clip); err != nil {
			return fmt.Errorf("concat %s: %w", filepath.Base(path), err)
		}
	}
	return c.EncodeWAV(ctx, combined, path)
}

func (c *Codec) rawInputArgs() []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", c.sampleRate),
		"-ac", fmt.Sprintf("%d", c.channels),
		"-i", "pipe:0",
	}
}

func (c *Codec) bufferFromRaw(raw []byte) (*audio.Buffer, error) {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return audio.New(c.sampleRate, c.channels, samples)
}

func rawFromBuffer(buf *audio.Buffer) []byte {
	samples := buf.Samples()
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	return raw
}

func runCommand(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// WriteFileAtomic writes data to path via a temp file in the same directory
// so a crashed export never leaves a truncated artifact behind.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".loom-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}
