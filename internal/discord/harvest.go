package discord

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"loom/internal/services"
	"loom/internal/textutil"
)

// ManifestFileName is written into the harvest directory after a run.
const ManifestFileName = "voice_manifest.json"

// AuthorClips records one author's downloaded voice messages, in the order
// they appeared in channel history.
type AuthorClips struct {
	Name       string   `json:"name"`
	AudioFiles []string `json:"audio_files"`
}

// Harvester downloads voice-message attachments grouped by author.
type Harvester struct {
	client *Client
	logger *slog.Logger
}

// NewHarvester builds a harvester over the given client.
func NewHarvester(client *Client, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{client: client, logger: logger}
}

// Harvest fetches messages newer than the lookback window, downloads every
// audio attachment from non-bot authors into <outputDir>/<author>/, and
// writes a manifest listing each author's files. A failed download skips
// that attachment and continues; the manifest only lists files that landed.
func (h *Harvester) Harvest(ctx context.Context, outputDir string, lookback time.Duration) ([]AuthorClips, error) {
	cutoff := time.Now().UTC().Add(-lookback)
	messages, err := h.client.FetchMessagesSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	byAuthor := make(map[string][]string)
	var order []string
	for _, message := range messages {
		if message.Author.Bot {
			continue
		}
		author := message.Author.Username
		for _, attachment := range message.Attachments {
			if !attachment.IsAudio() {
				continue
			}
			path, err := h.download(ctx, outputDir, author, attachment)
			if err != nil {
				h.logger.Warn("attachment download failed",
					"author", author,
					"filename", attachment.Filename,
					"error", err)
				continue
			}
			if _, seen := byAuthor[author]; !seen {
				order = append(order, author)
			}
			byAuthor[author] = append(byAuthor[author], path)
			h.logger.Info("voice message harvested", "author", author, "file", attachment.Filename)
		}
	}

	manifest := make([]AuthorClips, 0, len(order))
	for _, author := range order {
		files := byAuthor[author]
		sort.Strings(files)
		manifest = append(manifest, AuthorClips{Name: author, AudioFiles: files})
	}

	if err := WriteManifest(filepath.Join(outputDir, ManifestFileName), manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (h *Harvester) download(ctx context.Context, outputDir, author string, attachment Attachment) (string, error) {
	authorDir := filepath.Join(outputDir, textutil.SanitizeFileName(author))
	if err := os.MkdirAll(authorDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrTransient, "harvest", "mkdir", authorDir, err)
	}
	path := filepath.Join(authorDir, textutil.SanitizeFileName(attachment.Filename))
	file, err := os.Create(path)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "harvest", "create", path, err)
	}
	if err := h.client.DownloadAttachment(ctx, attachment, file); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", services.Wrap(services.ErrTransient, "harvest", "close", path, err)
	}
	return path, nil
}

// WriteManifest saves the author clip listing as pretty-printed JSON.
func WriteManifest(path string, manifest []AuthorClips) error {
	encoded, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "harvest", "manifest", path, err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "harvest", "manifest", path, err)
	}
	return nil
}

// ReadManifest loads a manifest written by a previous harvest run.
func ReadManifest(path string) ([]AuthorClips, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "harvest", "manifest", path, err)
	}
	var manifest []AuthorClips
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, services.Wrap(services.ErrValidation, "harvest", "manifest", path, err)
	}
	return manifest, nil
}
