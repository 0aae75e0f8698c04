package snippets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"loom/internal/audio"
	"loom/internal/moments"
	"loom/internal/services"
	"loom/internal/textutil"
)

// Snippet describes one materialized audio clip.
type Snippet struct {
	Filename string  `json:"filename"`
	Filepath string  `json:"filepath"`
	Reason   string  `json:"reason"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Metadata is the aggregate record written once per source audio file.
type Metadata struct {
	SourceFile     string    `json:"source_file"`
	FullTranscript string    `json:"full_transcript"`
	Snippets       []Snippet `json:"snippets"`
}

// MetadataFileName is the metadata document name inside each output folder.
const MetadataFileName = "snippets_metadata.json"

// Codec is the audio surface the materializer needs.
type Codec interface {
	Decode(ctx context.Context, path string) (*audio.Buffer, error)
	EncodeMP3(ctx context.Context, buf *audio.Buffer, path, bitrate string) error
}

// Materializer slices a source recording into per-moment snippet files.
type Materializer struct {
	codec   Codec
	bitrate string
	logger  *slog.Logger
}

// NewMaterializer builds a materializer exporting MP3s at the given bitrate.
func NewMaterializer(codec Codec, bitrate string, logger *slog.Logger) *Materializer {
	if bitrate == "" {
		bitrate = "192k"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{codec: codec, bitrate: bitrate, logger: logger}
}

// Extract slices sourcePath into one file per moment, in input order, and
// writes the aggregate metadata document. A source that cannot be decoded is
// fatal for the whole extraction: no partial snippet set is produced.
func (m *Materializer) Extract(ctx context.Context, sourcePath, fullTranscript string, selected []moments.Moment, outputDir string) ([]Snippet, error) {
	source, err := m.codec.Decode(ctx, sourcePath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "extract", "decode source", sourcePath, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "extract", "create output dir", outputDir, err)
	}

	out := make([]Snippet, 0, len(selected))
	for i, moment := range selected {
		// Seconds to milliseconds, truncated; applied uniformly pipeline-wide.
		startMs := int(moment.Start * 1000)
		endMs := int(moment.End * 1000)
		clip := source.Slice(startMs, endMs)

		filename := fmt.Sprintf("%d_%s.mp3", i+1, textutil.SanitizeReason(moment.Reason))
		path := filepath.Join(outputDir, filename)
		if err := m.codec.EncodeMP3(ctx, clip, path, m.bitrate); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "extract", "encode snippet", filename, err)
		}

		snippet := Snippet{
			Filename: filename,
			Filepath: path,
			Reason:   moment.Reason,
			Start:    moment.Start,
			End:      moment.End,
			Duration: moment.End - moment.Start,
		}
		out = append(out, snippet)
		m.logger.Info("snippet extracted",
			"filename", filename,
			"duration_s", snippet.Duration,
			"reason", moment.Reason,
		)
	}

	meta := Metadata{
		SourceFile:     sourcePath,
		FullTranscript: fullTranscript,
		Snippets:       out,
	}
	if err := WriteMetadata(filepath.Join(outputDir, MetadataFileName), meta); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteMetadata writes the aggregate metadata document, pretty-printed UTF-8.
func WriteMetadata(path string, meta Metadata) error {
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "extract", "encode metadata", path, err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "extract", "write metadata", path, err)
	}
	return nil
}
