package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func outputDirFromArgs(t *testing.T, args []string) string {
	t.Helper()
	for i, arg := range args {
		if arg == "--output_dir" && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatal("--output_dir not passed to whisper")
	return ""
}

func TestTranscribeParsesSegments(t *testing.T) {
	svc := NewService(Config{Model: "base"})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		dir := outputDirFromArgs(t, args)
		payload := `{
			"text": " seg0 seg1",
			"segments": [
				{"id": 0, "text": " seg0", "start": 0.0, "end": 10.0},
				{"id": 7, "text": " seg1", "start": 10.0, "end": 20.0}
			]
		}`
		return os.WriteFile(filepath.Join(dir, "mike.json"), []byte(payload), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), "/audio/mike.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "seg0 seg1" {
		t.Fatalf("text = %q", result.Text)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(result.Segments))
	}
	// IDs are re-derived as contiguous regardless of CLI numbering.
	if result.Segments[1].ID != 1 || result.Segments[1].Start != 10.0 || result.Segments[1].End != 20.0 {
		t.Fatalf("segment 1 = %+v", result.Segments[1])
	}
	if err := result.Validate(); err != nil {
		t.Fatalf("parsed result must validate: %v", err)
	}
}

func TestTranscribeCommandFailure(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("model download failed")
	})
	if _, err := svc.Transcribe(context.Background(), "/audio/mike.wav"); err == nil {
		t.Fatal("expected transcription failure to propagate")
	}
}
