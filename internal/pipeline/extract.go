package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"loom/internal/moments"
	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/snippets"
	"loom/internal/stage"
	"loom/internal/textutil"
)

// ExtractStage materializes the selected moments as snippet files under a
// per-speaker subdirectory of the snippet root.
type ExtractStage struct {
	materializer *snippets.Materializer
	snippetRoot  string
	ffmpegBinary string
	logger       *slog.Logger
}

// NewExtractStage builds the snippet extraction stage.
func NewExtractStage(materializer *snippets.Materializer, snippetRoot, ffmpegBinary string, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{
		materializer: materializer,
		snippetRoot:  snippetRoot,
		ffmpegBinary: ffmpegBinary,
		logger:       logger,
	}
}

// Prepare validates the stored stage inputs and stamps the output directory.
func (e *ExtractStage) Prepare(_ context.Context, item *queue.Item) error {
	if _, err := decodeTranscript(item); err != nil {
		return err
	}
	if _, err := decodeMoments(item); err != nil {
		return err
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrNotFound, "extract", "prepare", item.SourcePath, err)
	}
	item.SnippetDir = filepath.Join(e.snippetRoot, textutil.SanitizeReason(item.Speaker))
	return nil
}

// Execute slices the source audio per moment and writes the snippet set plus
// its metadata record into the item's snippet directory.
func (e *ExtractStage) Execute(ctx context.Context, item *queue.Item) error {
	result, err := decodeTranscript(item)
	if err != nil {
		return err
	}
	selected, err := decodeMoments(item)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(item.SnippetDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "extract", "mkdir", item.SnippetDir, err)
	}
	produced, err := e.materializer.Extract(ctx, item.SourcePath, result.Text, selected, item.SnippetDir)
	if err != nil {
		return err
	}
	e.logger.Info("snippets extracted",
		"speaker", item.Speaker,
		"count", len(produced),
		"dir", item.SnippetDir)
	return nil
}

// HealthCheck verifies ffmpeg is available for decode and encode work.
func (e *ExtractStage) HealthCheck(context.Context) stage.Health {
	const name = "extract"
	if e.materializer == nil {
		return stage.Unhealthy(name, "materializer not configured")
	}
	if e.ffmpegBinary != "" {
		if _, err := exec.LookPath(e.ffmpegBinary); err != nil {
			return stage.Unhealthy(name, "binary not found: "+e.ffmpegBinary)
		}
	}
	return stage.Healthy(name)
}

func decodeMoments(item *queue.Item) ([]moments.Moment, error) {
	if strings.TrimSpace(item.MomentsJSON) == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "decode", "item has no selected moments", nil)
	}
	var selected []moments.Moment
	if err := json.Unmarshal([]byte(item.MomentsJSON), &selected); err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "decode", "stored moments are not valid JSON", err)
	}
	return selected, nil
}
