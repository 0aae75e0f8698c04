// Package ingest turns harvested voice messages into queue items. Each
// author's clips are joined into a single WAV so downstream stages see one
// source file per speaker.
package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"loom/internal/discord"
	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/textutil"
)

// Concatenator joins encoded audio files into a single WAV.
type Concatenator interface {
	ConcatToWAV(ctx context.Context, inputs []string, path string) error
}

// Combiner builds per-author combined sources from a harvest manifest.
type Combiner struct {
	codec  Concatenator
	store  *queue.Store
	logger *slog.Logger
}

// NewCombiner builds a combiner over the given codec and queue store.
func NewCombiner(codec Concatenator, store *queue.Store, logger *slog.Logger) *Combiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Combiner{codec: codec, store: store, logger: logger}
}

// Combine reads the manifest under voiceDir, concatenates each author's
// clips into <combinedDir>/<author>.wav, and enqueues one pending item per
// author. An author whose concatenation fails is skipped with a warning so
// the remaining authors still make it into the queue. Re-running for a
// speaker that already has a live queue item rewrites that item's source
// and resets it to pending instead of enqueueing a duplicate.
func (c *Combiner) Combine(ctx context.Context, voiceDir, combinedDir, runID string) ([]*queue.Item, error) {
	manifest, err := discord.ReadManifest(filepath.Join(voiceDir, discord.ManifestFileName))
	if err != nil {
		return nil, err
	}
	if len(manifest) == 0 {
		c.logger.Info("no harvested voice messages to combine")
		return nil, nil
	}
	if err := os.MkdirAll(combinedDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "combine", "mkdir", combinedDir, err)
	}

	items := make([]*queue.Item, 0, len(manifest))
	for _, author := range manifest {
		if len(author.AudioFiles) == 0 {
			continue
		}
		target := filepath.Join(combinedDir, textutil.SanitizeFileName(author.Name)+".wav")
		if err := c.codec.ConcatToWAV(ctx, author.AudioFiles, target); err != nil {
			c.logger.Warn("combine failed, skipping author",
				"author", author.Name,
				"clips", len(author.AudioFiles),
				"error", err)
			continue
		}

		item, err := c.enqueue(ctx, author.Name, target, runID)
		if err != nil {
			return items, err
		}
		c.logger.Info("combined source enqueued",
			"author", author.Name,
			"clips", len(author.AudioFiles),
			"item_id", item.ID)
		items = append(items, item)
	}
	return items, nil
}

func (c *Combiner) enqueue(ctx context.Context, speaker, sourcePath, runID string) (*queue.Item, error) {
	existing, err := c.store.FindBySpeaker(ctx, speaker)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status != queue.StatusCompleted {
		existing.SourcePath = sourcePath
		existing.Status = queue.StatusPending
		existing.ErrorMessage = ""
		existing.RunID = runID
		if err := c.store.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	return c.store.NewSource(ctx, speaker, sourcePath, runID)
}
