package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"loom/internal/discord"
)

func newHarvestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Download recent voice messages from the configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			authors, files, err := runHarvest(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Harvested %d voice message(s) from %d author(s)\n", files, authors)
			return nil
		},
	}
}

// runHarvest downloads the lookback window's voice messages into the voice
// directory and emits the harvest notification. Shared with `loom run`.
func runHarvest(cmdCtx context.Context, ctx *commandContext) (authors, files int, err error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return 0, 0, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return 0, 0, err
	}

	client := ctx.discordClient(cfg)
	if !client.Configured() {
		return 0, 0, fmt.Errorf("harvest requires discord.bot_token and discord.channel_id (or DISCORD_BOT_TOKEN)")
	}

	harvester := discord.NewHarvester(client, logger)
	lookback := time.Duration(cfg.Discord.LookbackHours) * time.Hour
	manifest, err := harvester.Harvest(cmdCtx, cfg.VoiceDir(), lookback)
	if err != nil {
		return 0, 0, err
	}

	for _, author := range manifest {
		files += len(author.AudioFiles)
	}
	authors = len(manifest)

	if err := ctx.notifier(cfg).NotifyHarvestCompleted(cmdCtx, authors, files); err != nil {
		logger.Warn("harvest notification failed", "error", err)
	}
	return authors, files, nil
}
