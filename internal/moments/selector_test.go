package moments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"loom/internal/transcript"
)

func testSegments(n int) []transcript.Segment {
	segs := make([]transcript.Segment, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, transcript.Segment{
			ID:    i,
			Text:  fmt.Sprintf("seg%d", i),
			Start: float64(i * 10),
			End:   float64((i + 1) * 10),
		})
	}
	return segs
}

type stubCompleter struct {
	content string
	err     error
	calls   int
}

func (s *stubCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	return s.content, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSelectParsesBareJSONArray(t *testing.T) {
	completer := &stubCompleter{content: `[
		{"segment_start_id": 1, "segment_end_id": 3, "reason": "Funny story", "start": 10.0, "end": 40.0},
		{"segment_start_id": 4, "segment_end_id": 4, "reason": "Big update", "start": 40.0, "end": 50.0}
	]`}
	selector := NewSelector(completer, discard())

	got := selector.Select(context.Background(), testSegments(5))
	if len(got) != 2 {
		t.Fatalf("moments = %d, want 2", len(got))
	}
	if got[0].SegmentStartID != 1 || got[0].SegmentEndID != 3 || got[0].Reason != "Funny story" {
		t.Fatalf("moment 0 = %+v", got[0])
	}
	if got[1].Duration() != 10.0 {
		t.Fatalf("moment 1 duration = %v", got[1].Duration())
	}
}

func TestSelectEmptySegmentsSkipsCall(t *testing.T) {
	completer := &stubCompleter{content: `[]`}
	selector := NewSelector(completer, discard())

	if got := selector.Select(context.Background(), nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %d moments", len(got))
	}
	if completer.calls != 0 {
		t.Fatalf("llm called %d times for empty input", completer.calls)
	}
}

func TestSelectFallbackPaths(t *testing.T) {
	cases := []struct {
		name      string
		completer *stubCompleter
	}{
		{"call failure", &stubCompleter{err: errors.New("timeout")}},
		{"markdown fenced payload", &stubCompleter{content: "```json\n[{\"segment_start_id\":0,\"segment_end_id\":0,\"reason\":\"x\",\"start\":0,\"end\":10}]\n```"}},
		{"not json", &stubCompleter{content: "here are your moments!"}},
		{"empty array", &stubCompleter{content: "[]"}},
		{"out of range ids", &stubCompleter{content: `[{"segment_start_id":0,"segment_end_id":99,"reason":"x","start":0,"end":10}]`}},
		{"inverted range", &stubCompleter{content: `[{"segment_start_id":3,"segment_end_id":1,"reason":"x","start":0,"end":10}]`}},
		{"blank reason", &stubCompleter{content: `[{"segment_start_id":0,"segment_end_id":0,"reason":"  ","start":0,"end":10}]`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			selector := NewSelector(tc.completer, discard())
			got := selector.Select(context.Background(), testSegments(5))
			assertFallback(t, got, 3)
			if tc.completer.calls != 1 {
				t.Fatalf("llm called %d times, want exactly 1 (no retry)", tc.completer.calls)
			}
		})
	}
}

func TestFallbackShortInput(t *testing.T) {
	selector := NewSelector(nil, discard())
	got := selector.Select(context.Background(), testSegments(2))
	assertFallback(t, got, 2)
}

func TestFallbackTimestampsMatchSegments(t *testing.T) {
	segs := testSegments(5)
	got := Fallback(segs)
	if len(got) != 3 {
		t.Fatalf("fallback moments = %d, want 3", len(got))
	}
	for i, m := range got {
		if m.Start != segs[i].Start || m.End != segs[i].End {
			t.Fatalf("moment %d timestamps %v-%v do not match segment %v-%v", i, m.Start, m.End, segs[i].Start, segs[i].End)
		}
		if m.SegmentStartID != i || m.SegmentEndID != i {
			t.Fatalf("moment %d covers segments %d-%d, want single segment %d", i, m.SegmentStartID, m.SegmentEndID, i)
		}
	}
}

func assertFallback(t *testing.T, got []Moment, want int) {
	t.Helper()
	if len(got) != want {
		t.Fatalf("fallback moments = %d, want %d", len(got), want)
	}
	for i, m := range got {
		if m.Reason != FallbackReason {
			t.Fatalf("moment %d reason = %q, want %q", i, m.Reason, FallbackReason)
		}
	}
}
