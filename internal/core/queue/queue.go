// Package queue persists chat commands that wait for the user's approval.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Lin-Jiong-HDU/wissen/internal/core/security"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Manager manages the task queue with persistence
type Manager struct {
	sessionID string
	store     *Store
	tasks     []*Task
	mu        sync.RWMutex
}

// NewQueue opens the queue stored at filePath. Tasks added through it
// belong to sessionID.
func NewQueue(filePath string, sessionID string) (*Manager, error) {
	store := NewStore(filePath)

	tasks, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &Manager{
		sessionID: sessionID,
		store:     store,
		tasks:     tasks,
	}, nil
}

// AddTask queues cmd, routed from utterance in directory cwd.
func (m *Manager) AddTask(utterance, cwd string, cmd router.Command, checkResult *security.CheckResult) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task := NewTask(m.sessionID, utterance, cwd, cmd, checkResult)
	m.tasks = append(m.tasks, task)

	if err := m.store.Save(m.tasks); err != nil {
		m.tasks = m.tasks[:len(m.tasks)-1]
		return nil, err
	}

	return task, nil
}

// GetAllTasks returns copies of all tasks in insertion order.
func (m *Manager) GetAllTasks() []*Task {
	return m.filter(func(*Task) bool { return true })
}

// GetPendingTasks returns all pending tasks
func (m *Manager) GetPendingTasks() []*Task {
	return m.filter(func(t *Task) bool { return t.Status == TaskStatusPending })
}

// GetApprovedTasks returns the tasks waiting to run.
func (m *Manager) GetApprovedTasks() []*Task {
	return m.filter(func(t *Task) bool { return t.Status == TaskStatusApproved })
}

// GetTasksBySession returns tasks for a specific session
func (m *Manager) GetTasksBySession(sessionID string) []*Task {
	return m.filter(func(t *Task) bool { return t.SessionID == sessionID })
}

// GetTask returns a copy of one task.
func (m *Manager) GetTask(taskID string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, err := m.find(taskID)
	if err != nil {
		return nil, err
	}
	c := *task
	return &c, nil
}

func (m *Manager) filter(keep func(*Task) bool) []*Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Task
	for _, task := range m.tasks {
		if keep(task) {
			c := *task
			result = append(result, &c)
		}
	}
	return result
}

func (m *Manager) find(taskID string) (*Task, error) {
	for _, task := range m.tasks {
		if task.ID == taskID {
			return task, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

// transition moves a task to status and persists the queue.
func (m *Manager) transition(taskID string, status TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, err := m.find(taskID)
	if err != nil {
		return err
	}
	if !task.TransitionStatus(status) {
		return fmt.Errorf("%w: task %s from %s to %s", ErrInvalidTransition, taskID, task.Status, status)
	}
	return m.store.Save(m.tasks)
}

// ApproveTask approves a task for execution
func (m *Manager) ApproveTask(taskID string) error {
	return m.transition(taskID, TaskStatusApproved)
}

// RejectTask rejects a task
func (m *Manager) RejectTask(taskID string) error {
	return m.transition(taskID, TaskStatusRejected)
}

// MarkExecuting marks a task as executing
func (m *Manager) MarkExecuting(taskID string) error {
	return m.transition(taskID, TaskStatusExecuting)
}

// SetTaskResult records the result of an executing task and completes or
// fails it.
func (m *Manager) SetTaskResult(taskID string, result *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, err := m.find(taskID)
	if err != nil {
		return err
	}

	targetStatus := TaskStatusCompleted
	if result.Failed() {
		targetStatus = TaskStatusFailed
	}
	if !task.CanTransitionTo(targetStatus) {
		return fmt.Errorf("%w: task %s from %s to %s", ErrInvalidTransition, taskID, task.Status, targetStatus)
	}

	task.SetResult(result)
	task.TransitionStatus(targetStatus)
	return m.store.Save(m.tasks)
}

// Deferrer queues commands that need confirmation instead of asking for
// it. It is used when nobody is at the terminal.
type Deferrer struct {
	queue     *Manager
	utterance string
	cwd       string
}

// Deferrer returns an authorizer that queues the command routed from
// utterance, typed in directory cwd.
func (m *Manager) Deferrer(utterance, cwd string) *Deferrer {
	return &Deferrer{queue: m, utterance: utterance, cwd: cwd}
}

// Authorize always declines and queues the command instead.
func (d *Deferrer) Authorize(_ context.Context, cmd router.Command, check *security.CheckResult) (bool, string) {
	task, err := d.queue.AddTask(d.utterance, d.cwd, cmd, check)
	if err != nil {
		return false, "❌ Aufgabe konnte nicht gespeichert werden: " + err.Error()
	}
	return false, fmt.Sprintf("📋 Zur Freigabe eingereiht: %s\n   Aufgabe %s, freigeben mit 'wissen tasks'",
		task.Summary, task.ShortID())
}
