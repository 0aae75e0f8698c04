package main

import (
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: harvest, process, script, assemble, publish",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another loom run is already in progress (lock at %s)", cfg.LockPath())
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("release run lock failed", "error", err)
				}
			}()

			cmdCtx := cmd.Context()
			notifier := ctx.notifier(cfg)
			out := cmd.OutOrStdout()
			started := time.Now()

			fail := func(step string, err error) error {
				if notifyErr := notifier.NotifyError(cmdCtx, err, step); notifyErr != nil {
					logger.Warn("error notification failed", "error", notifyErr)
				}
				return fmt.Errorf("%s: %w", step, err)
			}

			authors, files, err := runHarvest(cmdCtx, ctx)
			if err != nil {
				return fail("harvest", err)
			}
			fmt.Fprintf(out, "Harvested %d voice message(s) from %d author(s)\n", files, authors)
			if files == 0 {
				fmt.Fprintln(out, "Nothing to do")
				return nil
			}

			summary, enqueued, err := runProcess(cmdCtx, ctx)
			if err != nil {
				return fail("process", err)
			}
			if err := notifier.NotifyRunStarted(cmdCtx, enqueued); err != nil {
				logger.Warn("run notification failed", "error", err)
			}
			fmt.Fprintf(out, "Processed %d item(s): %d completed, %d failed\n",
				summary.Processed, summary.Completed, summary.Failed)
			if summary.Completed == 0 {
				return fail("process", fmt.Errorf("no sources completed the pipeline"))
			}

			scriptPath, entries, err := runScript(cmdCtx, ctx)
			if err != nil {
				return fail("script", err)
			}
			fmt.Fprintf(out, "Script with %d entries written to %s\n", entries, scriptPath)

			episodePath, err := runAssemble(cmdCtx, ctx)
			if err != nil {
				return fail("assemble", err)
			}
			fmt.Fprintf(out, "Episode written to %s\n", episodePath)

			if err := runPublish(cmdCtx, ctx, message); err != nil {
				return fail("publish", err)
			}
			fmt.Fprintln(out, "Episode published")

			if err := notifier.NotifyRunCompleted(cmdCtx, summary.Completed, summary.Failed, time.Since(started)); err != nil {
				logger.Warn("run notification failed", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", defaultPublishMessage, "Message posted alongside the episode file")
	return cmd
}
