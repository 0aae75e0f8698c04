package queue

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSourceAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.NewSource(ctx, "Mike", "/data/combined/mike.wav", "run-1")
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if item.Status != StatusPending {
		t.Fatalf("status = %s, want pending", item.Status)
	}
	if item.Speaker != "Mike" || item.SourcePath != "/data/combined/mike.wav" || item.RunID != "run-1" {
		t.Fatalf("item = %+v", item)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched == nil || fetched.Speaker != "Mike" {
		t.Fatalf("fetched = %+v", fetched)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	item, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil item, got %+v", item)
	}
}

func TestUpdatePersistsStageArtifacts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.NewSource(ctx, "Sarah", "/data/combined/sarah.wav", "")
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	item.Status = StatusTranscribed
	item.TranscriptJSON = `{"full_text":"hello","segments":[]}`
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	item.Status = StatusSelected
	item.MomentsJSON = `[{"segment_start_id":0,"segment_end_id":0,"reason":"funny","start":0,"end":3}]`
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != StatusSelected {
		t.Fatalf("status = %s", fetched.Status)
	}
	if fetched.TranscriptJSON == "" || fetched.MomentsJSON == "" {
		t.Fatalf("stage artifacts lost: %+v", fetched)
	}
}

func TestNextForStatusesOrdersByCreation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, _ := store.NewSource(ctx, "A", "/a.wav", "")
	second, _ := store.NewSource(ctx, "B", "/b.wav", "")

	next, err := store.NextForStatuses(ctx, StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("next = %+v, want item %d", next, first.ID)
	}

	first.Status = StatusCompleted
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update: %v", err)
	}
	next, err = store.NextForStatuses(ctx, StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("next = %+v, want item %d", next, second.ID)
	}

	none, err := store.NextForStatuses(ctx, StatusExtracting)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no extracting items, got %+v", none)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stuck, _ := store.NewSource(ctx, "A", "/a.wav", "")
	stuck.Status = StatusTranscribing
	if err := store.Update(ctx, stuck); err != nil {
		t.Fatalf("Update: %v", err)
	}
	done, _ := store.NewSource(ctx, "B", "/b.wav", "")
	done.Status = StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}
	fetched, _ := store.GetByID(ctx, stuck.ID)
	if fetched.Status != StatusPending {
		t.Fatalf("status = %s, want pending", fetched.Status)
	}
	fetched, _ = store.GetByID(ctx, done.ID)
	if fetched.Status != StatusCompleted {
		t.Fatalf("completed item touched: %s", fetched.Status)
	}
}

func TestRetryFailed(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, _ := store.NewSource(ctx, "A", "/a.wav", "")
	item.SetFailed("whisper exploded")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	retried, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("retried = %d, want 1", retried)
	}
	fetched, _ := store.GetByID(ctx, item.ID)
	if fetched.Status != StatusPending || fetched.ErrorMessage != "" {
		t.Fatalf("item after retry = %+v", fetched)
	}
}

func TestStatsAndHealth(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a, _ := store.NewSource(ctx, "A", "/a.wav", "")
	b, _ := store.NewSource(ctx, "B", "/b.wav", "")
	store.NewSource(ctx, "C", "/c.wav", "")

	a.Status = StatusSelecting
	store.Update(ctx, a)
	b.SetFailed("boom")
	store.Update(ctx, b)

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	want := HealthSummary{Total: 3, Pending: 1, Processing: 1, Failed: 1}
	if health != want {
		t.Fatalf("health = %+v, want %+v", health, want)
	}
}

func TestClearCompleted(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a, _ := store.NewSource(ctx, "A", "/a.wav", "")
	a.Status = StatusCompleted
	store.Update(ctx, a)
	store.NewSource(ctx, "B", "/b.wav", "")

	removed, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	remaining, _ := store.List(ctx)
	if len(remaining) != 1 || remaining[0].Speaker != "B" {
		t.Fatalf("remaining = %+v", remaining)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus(" Transcribing "); !ok || status != StatusTranscribing {
		t.Fatalf("ParseStatus = %s, %v", status, ok)
	}
	if _, ok := ParseStatus("ripping"); ok {
		t.Fatal("unknown status accepted")
	}
}
