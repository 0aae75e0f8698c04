package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"loom/internal/fileutil"
)

const defaultPublishMessage = "A new episode is ready!"

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Send the assembled episode back to the channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runPublish(cmd.Context(), ctx, message); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Episode published")
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", defaultPublishMessage, "Message posted alongside the episode file")
	return cmd
}

// runPublish uploads the episode file to the publish channel and archives a
// verified copy under the data directory. Shared with `loom run`.
func runPublish(cmdCtx context.Context, ctx *commandContext, message string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	client := ctx.discordClient(cfg)
	if !client.Configured() {
		return fmt.Errorf("publishing requires discord.bot_token and a channel id")
	}

	episodePath := cfg.EpisodePath()
	file, err := os.Open(episodePath)
	if err != nil {
		return fmt.Errorf("no episode at %s; run 'loom assemble' first", episodePath)
	}
	defer file.Close()

	if err := client.SendFile(cmdCtx, message, episodePath, file); err != nil {
		return err
	}
	logger.Info("episode published", "file", filepath.Base(episodePath))

	if err := archiveEpisode(cfg.Paths.DataDir, episodePath); err != nil {
		logger.Warn("episode archive failed", "error", err)
	}
	return nil
}

// archiveEpisode keeps a timestamped verified copy of each published episode.
func archiveEpisode(dataDir, episodePath string) error {
	archiveDir := filepath.Join(dataDir, "published")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return err
	}
	name := time.Now().UTC().Format("20060102T150405Z") + "_" + filepath.Base(episodePath)
	return fileutil.CopyFileVerified(episodePath, filepath.Join(archiveDir, name))
}
