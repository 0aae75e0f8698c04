package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"loom/internal/discord"
	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/testsupport"
)

type stubConcat struct {
	calls map[string][]string
	fail  map[string]bool
}

func newStubConcat() *stubConcat {
	return &stubConcat{calls: make(map[string][]string), fail: make(map[string]bool)}
}

func (s *stubConcat) ConcatToWAV(_ context.Context, inputs []string, path string) error {
	if s.fail[filepath.Base(path)] {
		return errors.New("concat blew up")
	}
	s.calls[filepath.Base(path)] = append([]string(nil), inputs...)
	return os.WriteFile(path, []byte("RIFF"), 0o644)
}

func writeManifest(t *testing.T, voiceDir string, manifest []discord.AuthorClips) {
	t.Helper()
	if err := os.MkdirAll(voiceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := discord.WriteManifest(filepath.Join(voiceDir, discord.ManifestFileName), manifest); err != nil {
		t.Fatal(err)
	}
}

func clipFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("OggS"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestCombineEnqueuesOneItemPerAuthor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	concat := newStubConcat()
	combiner := NewCombiner(concat, store, nil)

	mikeClips := clipFiles(t, filepath.Join(cfg.VoiceDir(), "mike"), "a.ogg", "b.ogg")
	sarahClips := clipFiles(t, filepath.Join(cfg.VoiceDir(), "sarah"), "c.ogg")
	writeManifest(t, cfg.VoiceDir(), []discord.AuthorClips{
		{Name: "mike", AudioFiles: mikeClips},
		{Name: "sarah", AudioFiles: sarahClips},
	})

	items, err := combiner.Combine(context.Background(), cfg.VoiceDir(), cfg.CombinedDir(), "run-1")
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for i, speaker := range []string{"mike", "sarah"} {
		item := items[i]
		if item.Speaker != speaker {
			t.Fatalf("item %d speaker = %q, want %q", i, item.Speaker, speaker)
		}
		if item.Status != queue.StatusPending {
			t.Fatalf("item %d status = %q", i, item.Status)
		}
		want := filepath.Join(cfg.CombinedDir(), speaker+".wav")
		if item.SourcePath != want {
			t.Fatalf("item %d source = %q, want %q", i, item.SourcePath, want)
		}
		if item.RunID != "run-1" {
			t.Fatalf("item %d run ID = %q", i, item.RunID)
		}
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("combined file missing: %v", err)
		}
	}
	if got := concat.calls["mike.wav"]; len(got) != 2 || got[0] != mikeClips[0] {
		t.Fatalf("mike concat inputs = %v", got)
	}
}

func TestCombineSkipsAuthorOnConcatFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	concat := newStubConcat()
	concat.fail["mike.wav"] = true
	combiner := NewCombiner(concat, store, nil)

	writeManifest(t, cfg.VoiceDir(), []discord.AuthorClips{
		{Name: "mike", AudioFiles: clipFiles(t, filepath.Join(cfg.VoiceDir(), "mike"), "a.ogg")},
		{Name: "sarah", AudioFiles: clipFiles(t, filepath.Join(cfg.VoiceDir(), "sarah"), "b.ogg")},
	})

	items, err := combiner.Combine(context.Background(), cfg.VoiceDir(), cfg.CombinedDir(), "")
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(items) != 1 || items[0].Speaker != "sarah" {
		t.Fatalf("expected only sarah enqueued, got %+v", items)
	}
}

func TestCombineReusesLiveItemForSpeaker(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	concat := newStubConcat()
	combiner := NewCombiner(concat, store, nil)

	stale := testsupport.NewSource(t, store, "mike", "/old/mike.wav")
	stale.SetFailed("earlier run broke")
	if err := store.Update(context.Background(), stale); err != nil {
		t.Fatal(err)
	}

	writeManifest(t, cfg.VoiceDir(), []discord.AuthorClips{
		{Name: "mike", AudioFiles: clipFiles(t, filepath.Join(cfg.VoiceDir(), "mike"), "a.ogg")},
	})

	items, err := combiner.Combine(context.Background(), cfg.VoiceDir(), cfg.CombinedDir(), "run-2")
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ID != stale.ID {
		t.Fatalf("expected reuse of item %d, got new item %d", stale.ID, items[0].ID)
	}
	if items[0].Status != queue.StatusPending || items[0].ErrorMessage != "" {
		t.Fatalf("reused item not reset: %+v", items[0])
	}
	if items[0].SourcePath == "/old/mike.wav" {
		t.Fatal("source path was not rewritten")
	}
}

func TestCombineEmptyManifest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	combiner := NewCombiner(newStubConcat(), store, nil)

	writeManifest(t, cfg.VoiceDir(), []discord.AuthorClips{})

	items, err := combiner.Combine(context.Background(), cfg.VoiceDir(), cfg.CombinedDir(), "")
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestCombineMissingManifest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	combiner := NewCombiner(newStubConcat(), store, nil)

	_, err := combiner.Combine(context.Background(), cfg.VoiceDir(), cfg.CombinedDir(), "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
