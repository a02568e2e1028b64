// Package tui is the terminal view of the approval queue.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Lin-Jiong-HDU/wissen/internal/core/queue"
)

// AuthorizeResultMsg is sent when authorization completes
type AuthorizeResultMsg struct {
	TaskID  string
	Success bool
}

// RejectResultMsg is sent when rejection completes
type RejectResultMsg struct {
	TaskID  string
	Success bool
}

// StatusCheckMsg asks the model to reload a running task.
type StatusCheckMsg struct {
	TaskID string
}

// TasksLoadedMsg is sent when tasks are loaded
type TasksLoadedMsg struct {
	Tasks []*queue.Task
}

// Model is the interface for the TUI model
type Model interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Model, tea.Cmd)
	View() string
}
