package podcast

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"loom/internal/audio"
	"loom/internal/script"
	"loom/internal/services"
)

const (
	testRate     = 1000
	testChannels = 1
)

type stubSynth struct {
	fail  bool
	calls []string
}

func (s *stubSynth) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	s.calls = append(s.calls, text+"/"+voiceID)
	if s.fail {
		return nil, errors.New("tts backend down")
	}
	return []byte(text), nil
}

// stubCodec maps synthesized text and snippet paths to recognizable
// constant-valued buffers so ordering is visible in the output samples.
type stubCodec struct {
	clips    map[string]int16 // path or text -> sample value
	clipMs   int
	exported *audio.Buffer
	exportTo string
}

func (c *stubCodec) buffer(value int16) *audio.Buffer {
	samples := make([]int16, testRate*c.clipMs/1000)
	for i := range samples {
		samples[i] = value
	}
	buf, _ := audio.New(testRate, testChannels, samples)
	return buf
}

func (c *stubCodec) Decode(_ context.Context, path string) (*audio.Buffer, error) {
	value, ok := c.clips[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return c.buffer(value), nil
}

func (c *stubCodec) DecodeBytes(_ context.Context, data []byte, _ string) (*audio.Buffer, error) {
	value, ok := c.clips[string(data)]
	if !ok {
		return nil, fmt.Errorf("undecodable payload")
	}
	return c.buffer(value), nil
}

func (c *stubCodec) SampleRate() int { return testRate }
func (c *stubCodec) Channels() int   { return testChannels }

func (c *stubCodec) EncodeMP3(_ context.Context, buf *audio.Buffer, path, _ string) error {
	c.exported = buf
	c.exportTo = path
	return nil
}

func newTestCodec() *stubCodec {
	return &stubCodec{
		clips: map[string]int16{
			"hi":       100,
			"bye":      200,
			"clip.mp3": 300,
		},
		clipMs: 500,
	}
}

func TestAssemblePreservesOrder(t *testing.T) {
	synth := &stubSynth{}
	codec := newTestCodec()
	asm := New(synth, codec, codec, 200, "192k", nil)

	entries := []script.Entry{
		{Kind: script.KindSpeech, Speaker: "A", Text: "hi"},
		{Kind: script.KindAudioRef, Snippet: "clip.mp3"},
		{Kind: script.KindSpeech, Speaker: "B", Text: "bye"},
	}
	voices := map[string]string{"A": "v0", "B": "v1"}

	if err := asm.Assemble(context.Background(), entries, voices, "out.mp3"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if codec.exportTo != "out.mp3" {
		t.Fatalf("exported to %q", codec.exportTo)
	}
	if got, want := synth.calls, []string{"hi/v0", "bye/v1"}; len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("synthesis calls = %v, want %v", got, want)
	}

	expected, err := audio.Concat(testRate, testChannels,
		codec.buffer(100),
		audio.Silence(testRate, testChannels, 200),
		codec.buffer(300),
		audio.Silence(testRate, testChannels, 200),
		codec.buffer(200),
	)
	if err != nil {
		t.Fatalf("build expected buffer: %v", err)
	}
	expected.Normalize()

	got := codec.exported
	if got == nil {
		t.Fatal("no buffer exported")
	}
	if got.DurationMs() != expected.DurationMs() {
		t.Fatalf("duration = %dms, want %dms", got.DurationMs(), expected.DurationMs())
	}
	gotSamples, wantSamples := got.Samples(), expected.Samples()
	for i := range wantSamples {
		if gotSamples[i] != wantSamples[i] {
			t.Fatalf("sample %d = %d, want %d", i, gotSamples[i], wantSamples[i])
		}
	}
}

func TestAssembleMissingSnippetDegrades(t *testing.T) {
	synth := &stubSynth{}
	codec := newTestCodec()
	asm := New(synth, codec, codec, 0, "192k", nil)

	entries := []script.Entry{
		{Kind: script.KindSpeech, Speaker: "A", Text: "hi"},
		{Kind: script.KindAudioRef, Snippet: "gone.mp3"},
	}
	if err := asm.Assemble(context.Background(), entries, map[string]string{"A": "v0"}, "out.mp3"); err != nil {
		t.Fatalf("missing snippet must not abort: %v", err)
	}
	wantMs := codec.clipMs + missingSnippetMs
	if codec.exported.DurationMs() != wantMs {
		t.Fatalf("duration = %dms, want %dms", codec.exported.DurationMs(), wantMs)
	}
	// The substituted region must be silent.
	samples := codec.exported.Samples()
	tail := samples[testRate*codec.clipMs/1000:]
	for i, s := range tail {
		if s != 0 {
			t.Fatalf("substitute sample %d = %d, want silence", i, s)
		}
	}
}

func TestAssembleSynthesisFailureIsFatal(t *testing.T) {
	synth := &stubSynth{fail: true}
	codec := newTestCodec()
	asm := New(synth, codec, codec, 200, "192k", nil)

	entries := []script.Entry{{Kind: script.KindSpeech, Speaker: "A", Text: "hi"}}
	err := asm.Assemble(context.Background(), entries, map[string]string{"A": "v0"}, "out.mp3")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if codec.exported != nil {
		t.Fatal("no artifact may be written after a synthesis failure")
	}
	if len(synth.calls) != 1 {
		t.Fatalf("synthesis calls = %d, want 1 (no retry)", len(synth.calls))
	}
}

func TestAssembleEmptyScript(t *testing.T) {
	codec := newTestCodec()
	asm := New(&stubSynth{}, codec, codec, 200, "192k", nil)
	err := asm.Assemble(context.Background(), nil, nil, "out.mp3")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if codec.exported != nil {
		t.Fatal("empty script must not produce output")
	}
}

func TestAssembleUnassignedSpeaker(t *testing.T) {
	codec := newTestCodec()
	synth := &stubSynth{}
	asm := New(synth, codec, codec, 200, "192k", nil)
	entries := []script.Entry{{Kind: script.KindSpeech, Speaker: "Ghost", Text: "boo"}}
	err := asm.Assemble(context.Background(), entries, map[string]string{}, "out.mp3")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(synth.calls) != 0 {
		t.Fatal("no synthesis may happen for an unassigned speaker")
	}
}

func TestAssembleNoPauseAfterLastEntry(t *testing.T) {
	synth := &stubSynth{}
	codec := newTestCodec()
	asm := New(synth, codec, codec, 250, "192k", nil)

	entries := []script.Entry{
		{Kind: script.KindSpeech, Speaker: "A", Text: "hi"},
		{Kind: script.KindSpeech, Speaker: "A", Text: "bye"},
	}
	if err := asm.Assemble(context.Background(), entries, map[string]string{"A": "v0"}, "out.mp3"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	wantMs := codec.clipMs + 250 + codec.clipMs
	if codec.exported.DurationMs() != wantMs {
		t.Fatalf("duration = %dms, want %dms (single pause between two entries)", codec.exported.DurationMs(), wantMs)
	}
}
