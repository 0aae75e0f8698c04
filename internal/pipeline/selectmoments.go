package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"loom/internal/moments"
	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/stage"
)

// SelectStage picks interesting moments from a stored transcript. Because
// the selector falls back deterministically on any LLM trouble, this stage
// only fails on missing or corrupt stage inputs.
type SelectStage struct {
	selector *moments.Selector
	logger   *slog.Logger
}

// NewSelectStage builds the moment selection stage.
func NewSelectStage(selector *moments.Selector, logger *slog.Logger) *SelectStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &SelectStage{selector: selector, logger: logger}
}

// Prepare checks that the transcription stage left a readable transcript.
func (s *SelectStage) Prepare(_ context.Context, item *queue.Item) error {
	_, err := decodeTranscript(item)
	return err
}

// Execute selects moments and stores them on the item.
func (s *SelectStage) Execute(ctx context.Context, item *queue.Item) error {
	result, err := decodeTranscript(item)
	if err != nil {
		return err
	}
	selected := s.selector.Select(ctx, result.Segments)
	encoded, err := json.Marshal(selected)
	if err != nil {
		return services.Wrap(services.ErrTransient, "select", "encode", "marshal moments", err)
	}
	item.MomentsJSON = string(encoded)
	s.logger.Info("moments selected", "speaker", item.Speaker, "count", len(selected))
	return nil
}

// HealthCheck reports ready whenever a selector exists; the selector's
// fallback keeps the stage total even with the LLM unreachable.
func (s *SelectStage) HealthCheck(context.Context) stage.Health {
	const name = "select"
	if s.selector == nil {
		return stage.Unhealthy(name, "selector not configured")
	}
	return stage.Healthy(name)
}
