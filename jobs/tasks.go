package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBudgetDepletionSweep reconciles budget item statuses with their
	// balances.
	TaskBudgetDepletionSweep = "budget:depletion_sweep"
)

// NewBudgetDepletionSweepTask constructs the sweep task. It carries no
// payload; the sweep always covers every budget line.
func NewBudgetDepletionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskBudgetDepletionSweep, nil)
}
