package queue

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lin-Jiong-HDU/wissen/internal/core/security"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // Waiting for authorization
	TaskStatusApproved  TaskStatus = "approved"  // Authorized by user
	TaskStatusRejected  TaskStatus = "rejected"  // Rejected by user
	TaskStatusExecuting TaskStatus = "executing" // Currently executing
	TaskStatusCompleted TaskStatus = "completed" // Execution completed successfully
	TaskStatusFailed    TaskStatus = "failed"    // Execution failed
)

// Task is a chat command deferred until the user approves it. The
// utterance is stored rather than the command and routed again when the
// task runs.
type Task struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
	// Cwd is the session directory relative paths resolve against.
	Cwd         string                `json:"cwd"`
	Intent      router.Intent         `json:"intent"`
	Summary     string                `json:"summary"`
	CheckResult *security.CheckResult `json:"check_result"`
	Status      TaskStatus            `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Result      *Result               `json:"result,omitempty"`
}

// Result is the outcome of running a task.
type Result struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the run did not succeed.
func (r *Result) Failed() bool {
	return r.Error != "" || strings.HasPrefix(r.Status, "❌") || strings.HasPrefix(r.Status, "⛔")
}

// NewTask creates a new task with pending status
func NewTask(sessionID, utterance, cwd string, cmd router.Command, checkResult *security.CheckResult) *Task {
	now := time.Now()
	return &Task{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Utterance:   utterance,
		Cwd:         cwd,
		Intent:      cmd.Intent(),
		Summary:     cmd.Summary(),
		CheckResult: checkResult,
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ShortID is the prefix of the ID shown to users.
func (t *Task) ShortID() string {
	if len(t.ID) > 8 {
		return t.ID[:8]
	}
	return t.ID
}

var validTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:   {TaskStatusApproved, TaskStatusRejected},
	TaskStatusApproved:  {TaskStatusExecuting},
	TaskStatusExecuting: {TaskStatusCompleted, TaskStatusFailed},
}

// CanTransitionTo checks if a status transition is valid
func (t *Task) CanTransitionTo(newStatus TaskStatus) bool {
	for _, status := range validTransitions[t.Status] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// TransitionStatus updates the task status if the transition is valid
func (t *Task) TransitionStatus(newStatus TaskStatus) bool {
	if !t.CanTransitionTo(newStatus) {
		return false
	}
	t.Status = newStatus
	t.UpdatedAt = time.Now()
	return true
}

// SetResult records the execution result
func (t *Task) SetResult(result *Result) {
	t.Result = result
	t.UpdatedAt = time.Now()
}
