// Package execution runs queued tasks after the user approved them.
package execution

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/core"
	"github.com/Lin-Jiong-HDU/wissen/internal/core/queue"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

// TaskExecutor executes queued tasks
type TaskExecutor struct {
	queue    *queue.Manager
	session  *storage.Session
	executor *core.Executor
	logger   *zap.Logger
}

// NewTaskExecutor creates a task executor. executor must be bound to
// session and should authorize with core.AllowAll, since approval already
// happened in the queue.
func NewTaskExecutor(q *queue.Manager, session *storage.Session, executor *core.Executor, logger *zap.Logger) *TaskExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskExecutor{
		queue:    q,
		session:  session,
		executor: executor,
		logger:   logger,
	}
}

// ExecuteTask routes the stored utterance again and runs it in the
// directory the task was queued from.
func (e *TaskExecutor) ExecuteTask(ctx context.Context, taskID string) error {
	target, err := e.queue.GetTask(taskID)
	if err != nil {
		return err
	}

	if !target.CanTransitionTo(queue.TaskStatusExecuting) {
		return fmt.Errorf("%w: task %s cannot be executed (current status: %s)",
			queue.ErrInvalidTransition, taskID, target.Status)
	}

	if err := e.queue.MarkExecuting(taskID); err != nil {
		return fmt.Errorf("failed to mark executing: %w", err)
	}

	result := e.run(ctx, target)
	e.logger.Info("Task executed",
		zap.String("task", target.ShortID()),
		zap.String("summary", target.Summary),
		zap.Bool("failed", result.Failed()))

	if err := e.queue.SetTaskResult(taskID, result); err != nil {
		return fmt.Errorf("failed to set result: %w", err)
	}
	return nil
}

func (e *TaskExecutor) run(ctx context.Context, task *queue.Task) *queue.Result {
	cmd := router.Route(task.Utterance)
	// The router may have changed since the task was queued. Never run
	// something other than what the user approved.
	if cmd.Summary() != task.Summary {
		return &queue.Result{
			Error: fmt.Sprintf("command changed since approval: %q is now %q", task.Summary, cmd.Summary()),
		}
	}

	previous := e.session.Cwd()
	e.session.SetCwd(task.Cwd)
	defer e.session.SetCwd(previous)

	return &queue.Result{Status: e.executor.Execute(ctx, cmd)}
}

// ExecuteAllApproved executes all approved tasks in queue order. It keeps
// going after a failure and returns the last error.
func (e *TaskExecutor) ExecuteAllApproved(ctx context.Context) ([]*queue.Task, error) {
	var done []*queue.Task
	var lastErr error

	for _, task := range e.queue.GetApprovedTasks() {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := e.ExecuteTask(ctx, task.ID); err != nil {
			lastErr = err
			continue
		}
		if updated, err := e.queue.GetTask(task.ID); err == nil {
			done = append(done, updated)
		}
	}

	return done, lastErr
}
