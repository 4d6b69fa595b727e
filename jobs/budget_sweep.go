package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/munifin/munifin/internal/observability"
)

// BudgetSweeper reconciles budget item statuses with their balances.
type BudgetSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// NewBudgetSweepHandler returns the handler for TaskBudgetDepletionSweep.
func NewBudgetSweepHandler(sweeper BudgetSweeper, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := sweeper.Sweep(ctx)
		if err != nil {
			metrics.ObserveJob(TaskBudgetDepletionSweep, "error")
			logger.Error("budget depletion sweep failed", slog.Any("error", err))
			return err
		}
		metrics.ObserveJob(TaskBudgetDepletionSweep, "ok")
		logger.Info("budget depletion sweep complete", "items_updated", n)
		return nil
	}
}
