package testsupport

import (
	"context"
	"testing"

	"loom/internal/config"
	"loom/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg.QueuePath())
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSource creates a new queue item for tests using the provided store.
func NewSource(t testing.TB, store *queue.Store, speaker, sourcePath string) *queue.Item {
	t.Helper()

	item, err := store.NewSource(context.Background(), speaker, sourcePath, "")
	if err != nil {
		t.Fatalf("store.NewSource: %v", err)
	}
	return item
}
