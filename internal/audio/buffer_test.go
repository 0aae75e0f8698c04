package audio

import "testing"

func TestSilenceDuration(t *testing.T) {
	buf := Silence(44100, 1, 200)
	if got := buf.DurationMs(); got != 200 {
		t.Fatalf("DurationMs = %d, want 200", got)
	}
	if got := buf.Frames(); got != 8820 {
		t.Fatalf("Frames = %d, want 8820", got)
	}
	for _, s := range buf.Samples() {
		if s != 0 {
			t.Fatal("silence buffer contains non-zero sample")
		}
	}
}

func TestNewRejectsBadFormat(t *testing.T) {
	if _, err := New(0, 1, nil); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := New(44100, 0, nil); err == nil {
		t.Fatal("expected error for zero channels")
	}
	if _, err := New(44100, 2, make([]int16, 3)); err == nil {
		t.Fatal("expected error for ragged interleave")
	}
}

func TestSliceClampsAndCopies(t *testing.T) {
	samples := make([]int16, 1000)
	for i := range samples {
		samples[i] = int16(i)
	}
	buf, err := New(1000, 1, samples)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mid := buf.Slice(100, 300)
	if got := mid.Frames(); got != 200 {
		t.Fatalf("slice frames = %d, want 200", got)
	}
	if mid.Samples()[0] != 100 || mid.Samples()[199] != 299 {
		t.Fatalf("slice copied wrong region: first=%d last=%d", mid.Samples()[0], mid.Samples()[199])
	}

	// Mutating the slice must not touch the source.
	mid.Samples()[0] = -1
	if buf.Samples()[100] != 100 {
		t.Fatal("slice aliases the source buffer")
	}

	over := buf.Slice(900, 5000)
	if got := over.Frames(); got != 100 {
		t.Fatalf("clamped slice frames = %d, want 100", got)
	}
	if inverted := buf.Slice(500, 100); inverted.Frames() != 0 {
		t.Fatal("inverted range should be empty")
	}
}

func TestAppendAndConcatOrder(t *testing.T) {
	a, _ := New(8000, 1, []int16{1, 2})
	b, _ := New(8000, 1, []int16{3})
	c, _ := New(8000, 1, []int16{4, 5})

	out, err := Concat(8000, 1, a, b, c)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	want := []int16{1, 2, 3, 4, 5}
	got := out.Samples()
	if len(got) != len(want) {
		t.Fatalf("concat length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("concat sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestAppendRejectsFormatMismatch(t *testing.T) {
	a, _ := New(44100, 1, nil)
	b, _ := New(22050, 1, nil)
	if err := a.Append(b); err == nil {
		t.Fatal("expected format mismatch error")
	}
	if err := a.Append(nil); err == nil {
		t.Fatal("expected nil buffer error")
	}
}

func TestNormalizeScalesPeak(t *testing.T) {
	buf, _ := New(8000, 1, []int16{100, -50, 25})
	buf.Normalize()
	peak := int16(0)
	for _, s := range buf.Samples() {
		if s > peak {
			peak = s
		}
	}
	if peak < 32000 {
		t.Fatalf("peak after normalize = %d, want near full scale", peak)
	}
	if buf.Samples()[1] >= 0 {
		t.Fatal("normalize must preserve sign")
	}
}

func TestNormalizeSilenceNoop(t *testing.T) {
	buf := Silence(8000, 1, 10)
	buf.Normalize()
	for _, s := range buf.Samples() {
		if s != 0 {
			t.Fatal("normalize altered silence")
		}
	}
}
