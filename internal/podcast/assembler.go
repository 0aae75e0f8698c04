// Package podcast renders a parsed script into a single audio program.
//
// Each script entry resolves to an audio buffer: speech entries are sent to
// the synthesis backend with the speaker's assigned voice, audio references
// are loaded from disk. Resolved buffers are concatenated in script order
// with a fixed pause between adjacent entries, normalized in one pass, and
// exported as a single encoded file.
package podcast

import (
	"context"
	"fmt"
	"log/slog"

	"loom/internal/audio"
	"loom/internal/script"
	"loom/internal/services"
)

// missingSnippetMs is the length of the silent stand-in used when an
// audio-reference entry cannot be loaded. A single missing clip degrades
// the program instead of losing it.
const missingSnippetMs = 2000

// Synthesizer turns a line of text into encoded audio for one voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Decoder converts encoded audio into the assembler's working buffer format.
type Decoder interface {
	Decode(ctx context.Context, path string) (*audio.Buffer, error)
	DecodeBytes(ctx context.Context, data []byte, format string) (*audio.Buffer, error)
	SampleRate() int
	Channels() int
}

// Encoder writes a finished buffer to durable storage.
type Encoder interface {
	EncodeMP3(ctx context.Context, buf *audio.Buffer, path, bitrate string) error
}

// Assembler resolves scripts into finished podcast audio.
type Assembler struct {
	synth   Synthesizer
	decoder Decoder
	encoder Encoder
	pauseMs int
	bitrate string
	logger  *slog.Logger
}

// New builds an assembler. pauseMs is the silence inserted between adjacent
// entries; bitrate is the export bitrate (e.g. "192k").
func New(synth Synthesizer, decoder Decoder, encoder Encoder, pauseMs int, bitrate string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if pauseMs < 0 {
		pauseMs = 0
	}
	return &Assembler{
		synth:   synth,
		decoder: decoder,
		encoder: encoder,
		pauseMs: pauseMs,
		bitrate: bitrate,
		logger:  logger,
	}
}

// Assemble renders the script with the given voice assignments and writes the
// finished program to outputPath. Entries are resolved strictly in script
// order, one synthesis call at a time. A missing or unreadable snippet file
// is replaced by silence and logged; a synthesis failure aborts the run,
// since silence cannot stand in for a spoken line.
func (a *Assembler) Assemble(ctx context.Context, entries []script.Entry, voices map[string]string, outputPath string) error {
	if len(entries) == 0 {
		return services.Wrap(services.ErrValidation, "assemble", "render", "script is empty", nil)
	}

	program, err := a.render(ctx, entries, voices)
	if err != nil {
		return err
	}

	program.Normalize()
	if err := a.encoder.EncodeMP3(ctx, program, outputPath, a.bitrate); err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "export", outputPath, err)
	}
	a.logger.Info("podcast assembled",
		"entries", len(entries),
		"duration_ms", program.DurationMs(),
		"output", outputPath)
	return nil
}

// render resolves every entry and concatenates the results with pauses.
func (a *Assembler) render(ctx context.Context, entries []script.Entry, voices map[string]string) (*audio.Buffer, error) {
	rate := a.decoder.SampleRate()
	channels := a.decoder.Channels()

	clips := make([]*audio.Buffer, 0, len(entries)*2)
	for i, entry := range entries {
		clip, err := a.resolve(ctx, i, entry, voices)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
		if i < len(entries)-1 && a.pauseMs > 0 {
			clips = append(clips, audio.Silence(rate, channels, a.pauseMs))
		}
	}

	program, err := audio.Concat(rate, channels, clips...)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "assemble", "concat", "mismatched clip formats", err)
	}
	return program, nil
}

func (a *Assembler) resolve(ctx context.Context, index int, entry script.Entry, voices map[string]string) (*audio.Buffer, error) {
	switch entry.Kind {
	case script.KindSpeech:
		voiceID, ok := voices[entry.Speaker]
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "assemble", "resolve",
				fmt.Sprintf("entry %d: no voice assigned to speaker %q", index, entry.Speaker), nil)
		}
		encoded, err := a.synth.Synthesize(ctx, entry.Text, voiceID)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "assemble", "synthesize",
				fmt.Sprintf("entry %d speaker %q", index, entry.Speaker), err)
		}
		clip, err := a.decoder.DecodeBytes(ctx, encoded, "mp3")
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "assemble", "decode",
				fmt.Sprintf("entry %d synthesized audio", index), err)
		}
		return clip, nil
	case script.KindAudioRef:
		clip, err := a.decoder.Decode(ctx, entry.Snippet)
		if err != nil {
			a.logger.Warn("snippet unavailable, substituting silence",
				"entry", index,
				"snippet", entry.Snippet,
				"silence_ms", missingSnippetMs,
				"error", err)
			return audio.Silence(a.decoder.SampleRate(), a.decoder.Channels(), missingSnippetMs), nil
		}
		return clip, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "assemble", "resolve",
			fmt.Sprintf("entry %d: unknown entry kind", index), nil)
	}
}
