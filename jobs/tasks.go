// Package jobs runs background work over Asynq: the scheduled pass that
// generates documents from due recurring templates.
package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fernbooks/fernbooks/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRecurringGenerate is the task type for the recurring document pass.
	TaskRecurringGenerate = "recurring:generate"
)

// NewRecurringGenerateTask constructs the generation task. It carries no
// payload: the pass always scans for everything due.
func NewRecurringGenerateTask() *asynq.Task {
	return asynq.NewTask(TaskRecurringGenerate, nil)
}

// Generator is the slice of the recurring service the task needs.
type Generator interface {
	GenerateDue(ctx context.Context) (int, error)
}

// NewRecurringGenerateHandler processes TaskRecurringGenerate tasks. metrics
// may be nil.
func NewRecurringGenerateHandler(gen Generator, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskRecurringGenerate)
		count, err := gen.GenerateDue(ctx)
		if err != nil {
			logger.Error("recurring generation pass failed", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("recurring generation pass finished", slog.Int("generated", count))
		return tracker.End(nil)
	}
}
