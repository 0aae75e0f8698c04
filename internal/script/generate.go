package script

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"loom/internal/services"
)

// Completer is the LLM surface script generation needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// generationInput is the user payload handed to the model: every speaker's
// full transcript plus the snippet files available for reference entries.
type generationInput struct {
	Transcripts map[string]string `json:"transcripts"`
	Snippets    []string          `json:"snippets"`
}

// Generator produces a podcast script from transcripts via the LLM.
type Generator struct {
	completer Completer
	logger    *slog.Logger
}

// NewGenerator builds a script generator.
func NewGenerator(completer Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{completer: completer, logger: logger}
}

// Generate asks the LLM for a script covering the given transcripts and
// snippet files. Unlike moment selection there is no fallback: a whole
// program cannot be invented deterministically, so any failure is fatal.
// The response must parse as a valid script array; it is validated with the
// same strict rules as a script read from disk.
func (g *Generator) Generate(ctx context.Context, systemPrompt string, transcripts map[string]string, snippetPaths []string) ([]Entry, error) {
	if g.completer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "script", "generate", "llm not configured", nil)
	}
	if len(transcripts) == 0 {
		return nil, services.Wrap(services.ErrValidation, "script", "generate", "no transcripts", nil)
	}

	payload, err := json.Marshal(generationInput{Transcripts: transcripts, Snippets: snippetPaths})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "script", "generate", "encode prompt payload", err)
	}

	content, err := g.completer.CompleteJSON(ctx, systemPrompt, string(payload))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "script", "generate", "llm call failed", err)
	}

	entries, err := Parse([]byte(content))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "script", "generate", "model returned invalid script", err)
	}
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "script", "generate", "model returned empty script", nil)
	}
	g.logger.Info("script generated", "entries", len(entries), "speakers", len(Speakers(entries)))
	return entries, nil
}

// WriteFile saves entries as a pretty-printed JSON script document.
func WriteFile(path string, entries []Entry) error {
	encoded, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "script", "write", path, err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "script", "write", path, err)
	}
	return nil
}
