package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline state: queue counts, stage health, artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Configuration", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Config file", configFileKind(ctx.configExists), ctx.configPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Data directory", statusInfo, cfg.Paths.DataDir, colorize))
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(out, line)
				}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(out, statusIndent+"Queue is empty")
				} else {
					fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows,
						[]columnAlignment{alignLeft, alignRight}))
				}
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Stages", colorize) {
					fmt.Fprintln(out, line)
				}
				runner := ctx.newRunner(cfg, store, logger)
				for _, health := range runner.HealthCheck(cmd.Context()) {
					kind := statusOK
					if !health.Ready {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(health.Name, kind, health.Detail, colorize))
				}
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Artifacts", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Script", artifactKind(cfg.ScriptPath()), cfg.ScriptPath(), colorize))
				fmt.Fprintln(out, renderStatusLine("Episode", artifactKind(cfg.EpisodePath()), cfg.EpisodePath(), colorize))
				return nil
			})
		},
	}
}

func configFileKind(exists bool) statusKind {
	if exists {
		return statusOK
	}
	return statusWarn
}

func artifactKind(path string) statusKind {
	if _, err := os.Stat(path); err == nil {
		return statusOK
	}
	return statusInfo
}

// buildQueueStatusRows renders non-zero status counts in lifecycle order.
func buildQueueStatusRows(stats map[queue.Status]int) [][]string {
	var rows [][]string
	for _, status := range queue.AllStatuses() {
		count := stats[status]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	return rows
}
