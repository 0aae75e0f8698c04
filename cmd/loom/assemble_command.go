package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/media/ffprobe"
	"loom/internal/podcast"
	"loom/internal/script"
)

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assemble",
		Short: "Synthesize and assemble the episode from the script",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := runAssemble(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Episode written to %s\n", path)
			return nil
		},
	}
}

// runAssemble reads the script document, assigns voices, and renders the
// episode MP3. Shared with `loom run`.
func runAssemble(cmdCtx context.Context, ctx *commandContext) (string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(cfg.TTS.APIKey) == "" {
		return "", fmt.Errorf("assembly requires tts.api_key (or ELEVENLABS_API_KEY)")
	}

	scriptPath := cfg.ScriptPath()
	if _, err := os.Stat(scriptPath); err != nil {
		return "", fmt.Errorf("no script at %s; run 'loom script' first", scriptPath)
	}
	entries, err := script.ParseFile(scriptPath)
	if err != nil {
		return "", err
	}
	voices, err := script.AssignVoices(entries, cfg.Podcast.Voices)
	if err != nil {
		return "", err
	}

	codec := ctx.codec(cfg)
	assembler := podcast.New(ctx.ttsClient(cfg), codec, codec,
		cfg.Podcast.PauseMs, cfg.Podcast.Bitrate, logger)

	episodePath := cfg.EpisodePath()
	if err := assembler.Assemble(cmdCtx, entries, voices, episodePath); err != nil {
		return "", err
	}

	if probe, err := ffprobe.Inspect(cmdCtx, cfg.Media.FFprobeBinary, episodePath); err != nil {
		logger.Warn("episode probe failed", "error", err)
	} else {
		logger.Info("episode assembled",
			"duration_s", probe.DurationSeconds(),
			"size_bytes", probe.SizeBytes(),
			"bitrate", probe.BitRate())
	}

	if err := ctx.notifier(cfg).NotifyEpisodeReady(cmdCtx, episodePath); err != nil {
		logger.Warn("episode notification failed", "error", err)
	}
	return episodePath, nil
}
