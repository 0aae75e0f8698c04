package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/queue"
	"loom/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Combine harvested clips per author and run the staged pipeline",
		Long: "Concatenates each author's harvested clips into one source file, " +
			"enqueues a queue item per author, and drives every queued item " +
			"through transcription, moment selection, and snippet extraction.",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, enqueued, err := runProcess(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Enqueued %d source(s)\n", enqueued)
			fmt.Fprintf(out, "Processed %d item(s): %d completed, %d failed\n",
				summary.Processed, summary.Completed, summary.Failed)
			if summary.Failed > 0 {
				return fmt.Errorf("%d item(s) failed; inspect with 'loom queue list --status failed'", summary.Failed)
			}
			return nil
		},
	}
}

// runProcess combines manifest clips into per-author sources and drains the
// queue through the three pipeline stages. Shared with `loom run`.
func runProcess(cmdCtx context.Context, ctx *commandContext) (workflow.Summary, int, error) {
	var summary workflow.Summary
	var enqueued int

	logger, err := ctx.ensureLogger()
	if err != nil {
		return summary, 0, err
	}

	err = ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
		items, err := ctx.combiner(cfg, store, logger).Combine(
			cmdCtx, cfg.VoiceDir(), cfg.CombinedDir(), uuid.NewString())
		if err != nil {
			return err
		}
		enqueued = len(items)

		runner := ctx.newRunner(cfg, store, logger)
		summary, err = runner.Run(cmdCtx)
		return err
	})
	return summary, enqueued, err
}
