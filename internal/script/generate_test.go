package script

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"loom/internal/services"
)

type stubCompleter struct {
	content string
	err     error
	calls   int
	user    string
}

func (s *stubCompleter) CompleteJSON(_ context.Context, _ string, userPrompt string) (string, error) {
	s.calls++
	s.user = userPrompt
	return s.content, s.err
}

func TestGenerateProducesScript(t *testing.T) {
	completer := &stubCompleter{content: `[
		{"speaker": "Host", "text": "Welcome to the show."},
		{"snippet": "snippets/mike/1_big_reveal.mp3"}
	]`}
	gen := NewGenerator(completer, nil)

	entries, err := gen.Generate(context.Background(), "make a podcast",
		map[string]string{"Mike": "hello there"},
		[]string{"snippets/mike/1_big_reveal.mp3"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if completer.calls != 1 {
		t.Fatalf("llm calls = %d, want 1", completer.calls)
	}

	var payload generationInput
	if err := json.Unmarshal([]byte(completer.user), &payload); err != nil {
		t.Fatalf("user prompt is not JSON: %v", err)
	}
	if payload.Transcripts["Mike"] != "hello there" {
		t.Fatalf("payload transcripts = %v", payload.Transcripts)
	}
}

func TestGenerateFailuresAreFatal(t *testing.T) {
	cases := []struct {
		name      string
		completer *stubCompleter
	}{
		{"llm error", &stubCompleter{err: errors.New("boom")}},
		{"invalid script", &stubCompleter{content: `{"not": "an array"}`}},
		{"malformed entry", &stubCompleter{content: `[{"speaker": "A"}]`}},
		{"empty script", &stubCompleter{content: `[]`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := NewGenerator(tc.completer, nil)
			entries, err := gen.Generate(context.Background(), "prompt",
				map[string]string{"Mike": "hi"}, nil)
			if !errors.Is(err, services.ErrExternalTool) {
				t.Fatalf("expected external tool error, got %v", err)
			}
			if entries != nil {
				t.Fatal("no fallback script may be produced")
			}
			if tc.completer.calls != 1 {
				t.Fatalf("llm calls = %d, want 1 (no retry)", tc.completer.calls)
			}
		})
	}
}

func TestGenerateRequiresTranscripts(t *testing.T) {
	gen := NewGenerator(&stubCompleter{content: "[]"}, nil)
	if _, err := gen.Generate(context.Background(), "prompt", nil, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.json")
	entries := []Entry{
		{Kind: KindSpeech, Speaker: "Host", Text: "Welcome"},
		{Kind: KindAudioRef, Snippet: "clip.mp3"},
	}
	if err := WriteFile(path, entries); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(parsed) != 2 || parsed[0] != entries[0] || parsed[1] != entries[1] {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}
