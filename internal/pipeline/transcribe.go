// Package pipeline implements the stage handlers the workflow runner drives:
// transcription, moment selection, and snippet extraction. Each handler
// reads its inputs from the queue item, performs its work through the domain
// packages, and stores its artifact back on the item as JSON so the next
// stage can pick it up.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/stage"
	"loom/internal/transcript"
)

// TranscribeStage turns a queue item's source audio into a stored transcript.
type TranscribeStage struct {
	transcriber transcript.Transcriber
	binary      string
	logger      *slog.Logger
}

// NewTranscribeStage builds the transcription stage. binary is the
// transcription executable checked during health checks.
func NewTranscribeStage(transcriber transcript.Transcriber, binary string, logger *slog.Logger) *TranscribeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscribeStage{transcriber: transcriber, binary: binary, logger: logger}
}

// Prepare verifies the source audio exists before spending transcription time.
func (t *TranscribeStage) Prepare(_ context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.SourcePath) == "" {
		return services.Wrap(services.ErrValidation, "transcribe", "prepare", "item has no source path", nil)
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrNotFound, "transcribe", "prepare", item.SourcePath, err)
	}
	return nil
}

// Execute transcribes the source audio and stores the result on the item.
func (t *TranscribeStage) Execute(ctx context.Context, item *queue.Item) error {
	result, err := t.transcriber.Transcribe(ctx, item.SourcePath)
	if err != nil {
		return err
	}
	if err := result.Validate(); err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribe", "validate", "transcriber returned malformed segments", err)
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transcribe", "encode", "marshal transcript", err)
	}
	item.TranscriptJSON = string(encoded)
	t.logger.Info("transcription stored",
		"speaker", item.Speaker,
		"segments", len(result.Segments))
	return nil
}

// HealthCheck verifies the transcription binary is on PATH.
func (t *TranscribeStage) HealthCheck(context.Context) stage.Health {
	const name = "transcribe"
	if t.transcriber == nil {
		return stage.Unhealthy(name, "transcriber not configured")
	}
	if t.binary != "" {
		if _, err := exec.LookPath(t.binary); err != nil {
			return stage.Unhealthy(name, "binary not found: "+t.binary)
		}
	}
	return stage.Healthy(name)
}

// decodeTranscript loads the transcript a previous stage stored on the item.
func decodeTranscript(item *queue.Item) (transcript.Result, error) {
	var result transcript.Result
	if strings.TrimSpace(item.TranscriptJSON) == "" {
		return result, services.Wrap(services.ErrValidation, "pipeline", "decode", "item has no transcript", nil)
	}
	if err := json.Unmarshal([]byte(item.TranscriptJSON), &result); err != nil {
		return result, services.Wrap(services.ErrValidation, "pipeline", "decode", "stored transcript is not valid JSON", err)
	}
	return result, nil
}
