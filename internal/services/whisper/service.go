package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"loom/internal/transcript"
)

// DefaultCommand is the whisper executable name.
const DefaultCommand = "whisper"

// DefaultModel is used when no model is configured.
const DefaultModel = "base"

// Config captures transcription settings.
type Config struct {
	Binary   string
	Model    string
	Language string
}

// Service provides whisper CLI transcription.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a whisper service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultCommand
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Binary returns the transcription executable the service invokes.
func (s *Service) Binary() string {
	return s.cfg.Binary
}

// Transcribe runs whisper over one audio file and returns ordered segments.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (transcript.Result, error) {
	var empty transcript.Result
	outputDir, err := os.MkdirTemp("", "loom-whisper-*")
	if err != nil {
		return empty, fmt.Errorf("whisper: temp dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := []string{
		audioPath,
		"--model", s.cfg.Model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--word_timestamps", "True",
		"--fp16", "False",
	}
	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return empty, err
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(outputDir, base+".json")
	return parseResultFile(resultPath)
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// whisperOutput matches the JSON document the whisper CLI writes.
type whisperOutput struct {
	Text     string `json:"text"`
	Segments []struct {
		ID    int     `json:"id"`
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

func parseResultFile(path string) (transcript.Result, error) {
	var empty transcript.Result
	data, err := os.ReadFile(path)
	if err != nil {
		return empty, fmt.Errorf("whisper: read output: %w", err)
	}
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return empty, fmt.Errorf("whisper: parse output: %w", err)
	}

	result := transcript.Result{Text: strings.TrimSpace(out.Text)}
	for i, seg := range out.Segments {
		// Re-derive IDs: the pipeline requires contiguous 0-based ids and the
		// CLI occasionally renumbers after VAD filtering.
		result.Segments = append(result.Segments, transcript.Segment{
			ID:    i,
			Text:  strings.TrimSpace(seg.Text),
			Start: seg.Start,
			End:   seg.End,
		})
	}
	return result, nil
}
