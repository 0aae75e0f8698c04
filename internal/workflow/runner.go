// Package workflow drives queue items through the pipeline stages in order.
//
// Processing is strictly sequential: one item at a time, one stage at a
// time. A stage failure marks that item failed and moves on to the next
// item; it never aborts the whole batch.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/stage"
)

// pipelineStage binds a handler to the statuses it consumes and produces.
type pipelineStage struct {
	name             string
	sourceStatus     queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
	handler          stage.Handler
}

// Runner sequences queue items through transcription, moment selection, and
// snippet extraction.
type Runner struct {
	store  *queue.Store
	stages []pipelineStage
	logger *slog.Logger
}

// NewRunner wires the three stage handlers to their queue statuses.
func NewRunner(store *queue.Store, transcribe, selectMoments, extract stage.Handler, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:  store,
		logger: logger,
		stages: []pipelineStage{
			{
				name:             "transcribe",
				sourceStatus:     queue.StatusPending,
				processingStatus: queue.StatusTranscribing,
				doneStatus:       queue.StatusTranscribed,
				handler:          transcribe,
			},
			{
				name:             "select",
				sourceStatus:     queue.StatusTranscribed,
				processingStatus: queue.StatusSelecting,
				doneStatus:       queue.StatusSelected,
				handler:          selectMoments,
			},
			{
				name:             "extract",
				sourceStatus:     queue.StatusSelected,
				processingStatus: queue.StatusExtracting,
				doneStatus:       queue.StatusCompleted,
				handler:          extract,
			},
		},
	}
}

// Summary reports the outcome of one Run call.
type Summary struct {
	RunID     string
	Processed int
	Completed int
	Failed    int
}

// HealthCheck asks every stage handler whether its dependencies are ready.
func (r *Runner) HealthCheck(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(r.stages))
	for _, ps := range r.stages {
		if ps.handler == nil {
			checks = append(checks, stage.Unhealthy(ps.name, "handler not configured"))
			continue
		}
		checks = append(checks, ps.handler.HealthCheck(ctx))
	}
	return checks
}

// Run processes queue items until no item is left in a runnable status.
// Items abandoned mid-stage by an earlier interrupted run are reset to
// pending first. Each item is driven one stage forward per pass, oldest
// first, so batches progress evenly.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	logger := r.logger.With("run_id", summary.RunID)

	if reset, err := r.store.ResetStuckProcessing(ctx); err != nil {
		return summary, fmt.Errorf("reset stuck items: %w", err)
	} else if reset > 0 {
		logger.Warn("reset items stuck in processing", "count", reset)
	}

	sourceStatuses := make([]queue.Status, 0, len(r.stages))
	for _, ps := range r.stages {
		sourceStatuses = append(sourceStatuses, ps.sourceStatus)
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		item, err := r.store.NextForStatuses(ctx, sourceStatuses...)
		if err != nil {
			return summary, fmt.Errorf("next queue item: %w", err)
		}
		if item == nil {
			return summary, nil
		}

		finished, err := r.processItem(ctx, logger, item)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			summary.Processed++
			summary.Failed++
			continue
		}
		if finished {
			summary.Processed++
			summary.Completed++
		}
	}
}

// processItem advances one item a single stage. It reports finished=true
// once the item reaches completed.
func (r *Runner) processItem(ctx context.Context, logger *slog.Logger, item *queue.Item) (bool, error) {
	ps, ok := r.stageForStatus(item.Status)
	if !ok {
		return false, fmt.Errorf("no stage consumes status %q", item.Status)
	}

	stageCtx := services.WithRunID(services.WithStage(services.WithItemID(ctx, item.ID), ps.name), item.RunID)
	stageLogger := logger.With("stage", ps.name, "item_id", item.ID, "speaker", item.Speaker)

	item.Status = ps.processingStatus
	item.ErrorMessage = ""
	if err := r.store.Update(stageCtx, item); err != nil {
		return false, fmt.Errorf("persist processing status: %w", err)
	}

	start := time.Now()
	stageLogger.Info("stage started", "source", item.SourcePath)

	if err := ps.handler.Prepare(stageCtx, item); err != nil {
		r.failItem(stageCtx, stageLogger, item, ps.name, err)
		return false, err
	}
	if err := r.store.Update(stageCtx, item); err != nil {
		return false, fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := ps.handler.Execute(stageCtx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted")
			return false, err
		}
		r.failItem(stageCtx, stageLogger, item, ps.name, err)
		return false, err
	}

	if item.Status == ps.processingStatus {
		item.Status = ps.doneStatus
	}
	if err := r.store.Update(stageCtx, item); err != nil {
		return false, fmt.Errorf("persist stage result: %w", err)
	}
	stageLogger.Info("stage finished",
		"status", string(item.Status),
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return item.Status == queue.StatusCompleted, nil
}

func (r *Runner) stageForStatus(status queue.Status) (pipelineStage, bool) {
	for _, ps := range r.stages {
		if ps.sourceStatus == status {
			return ps, true
		}
	}
	return pipelineStage{}, false
}

func (r *Runner) failItem(ctx context.Context, logger *slog.Logger, item *queue.Item, stageName string, cause error) {
	item.SetFailed(fmt.Sprintf("%s: %v", stageName, cause))
	if err := r.store.Update(ctx, item); err != nil {
		logger.Error("failed to persist item failure", "error", err)
		return
	}
	logger.Error("stage failed", "error", cause)
}
