package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Lin-Jiong-HDU/wissen/internal/core/queue"
)

// statusCheckInterval is how often a running task is reloaded.
const statusCheckInterval = 500 * time.Millisecond

// TaskReloadFunc is a callback to reload a task from the queue
type TaskReloadFunc func(taskID string) *queue.Task

// model is the Bubble Tea model for the queue TUI
type model struct {
	tasks          []*queue.Task
	cursor         int
	keys           keyMap
	renderer       *Renderer
	showingHelp    bool
	onAuthorize    func(string) tea.Cmd
	onReject       func(string) tea.Cmd
	taskReloadFunc TaskReloadFunc
	pendingG       bool // 'g' was pressed, waiting for the second one
	width          int
	height         int
}

// NewModel creates a new queue UI model
func NewModel(tasks []*queue.Task) Model {
	return NewModelWithOptions(tasks, nil, nil, nil)
}

// NewModelWithOptions creates a queue UI model. onAuthorize and onReject
// persist the decision; taskReloadFunc refreshes a task while it runs.
func NewModelWithOptions(tasks []*queue.Task, onAuthorize, onReject func(string) tea.Cmd, taskReloadFunc TaskReloadFunc) Model {
	if onAuthorize == nil {
		onAuthorize = defaultAuthorizeHandler
	}
	if onReject == nil {
		onReject = defaultRejectHandler
	}

	return model{
		tasks:          tasks,
		keys:           defaultKeyMap(),
		renderer:       NewRenderer(0, 0),
		onAuthorize:    onAuthorize,
		onReject:       onReject,
		taskReloadFunc: taskReloadFunc,
	}
}

func defaultAuthorizeHandler(taskID string) tea.Cmd {
	return func() tea.Msg {
		return AuthorizeResultMsg{TaskID: taskID, Success: true}
	}
}

func defaultRejectHandler(taskID string) tea.Cmd {
	return func() tea.Msg {
		return RejectResultMsg{TaskID: taskID, Success: true}
	}
}

func (m model) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer = NewRenderer(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TasksLoadedMsg:
		m.tasks = msg.Tasks
		m.cursor = 0
		return m, nil

	case AuthorizeResultMsg:
		if !msg.Success {
			return m, nil
		}
		// The handler starts the task in the background. Show it as
		// running until a reload says otherwise.
		if i := m.indexOf(msg.TaskID); i >= 0 {
			updated := *m.tasks[i]
			updated.Status = queue.TaskStatusExecuting
			m.tasks[i] = &updated
			return m, scheduleStatusCheck(msg.TaskID)
		}
		return m, nil

	case StatusCheckMsg:
		if m.taskReloadFunc == nil {
			return m, nil
		}
		fresh := m.taskReloadFunc(msg.TaskID)
		i := m.indexOf(msg.TaskID)
		if fresh == nil || i < 0 {
			return m, nil
		}
		m.tasks[i] = fresh
		if fresh.Status == queue.TaskStatusExecuting || fresh.Status == queue.TaskStatusApproved {
			return m, scheduleStatusCheck(msg.TaskID)
		}
		return m, nil

	case RejectResultMsg:
		if !msg.Success {
			return m, nil
		}
		if i := m.indexOf(msg.TaskID); i >= 0 {
			updated := *m.tasks[i]
			updated.Status = queue.TaskStatusRejected
			m.tasks[i] = &updated
		}
		return m, nil
	}

	return m, nil
}

func scheduleStatusCheck(taskID string) tea.Cmd {
	return tea.Tick(statusCheckInterval, func(time.Time) tea.Msg {
		return StatusCheckMsg{TaskID: taskID}
	})
}

func (m model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.keys.Quit.matches(msg) || m.keys.ForceQuit.matches(msg) || msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.keys.Enter.matches(msg) {
		m.showingHelp = !m.showingHelp
		return m, nil
	}

	switch msg.String() {
	case "k", "up":
		m.pendingG = false
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "j", "down":
		m.pendingG = false
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil
	case "g":
		if m.pendingG {
			m.cursor = 0
		}
		m.pendingG = !m.pendingG
		return m, nil
	case "G":
		m.pendingG = false
		if len(m.tasks) > 0 {
			m.cursor = len(m.tasks) - 1
		}
		return m, nil
	}
	m.pendingG = false

	switch {
	case m.keys.Authorize.matches(msg):
		if task := m.current(); task != nil && task.Status == queue.TaskStatusPending {
			return m, m.onAuthorize(task.ID)
		}
	case m.keys.Reject.matches(msg):
		if task := m.current(); task != nil && task.Status == queue.TaskStatusPending {
			return m, m.onReject(task.ID)
		}
	case m.keys.AuthorizeAll.matches(msg):
		return m, m.forPending(m.onAuthorize)
	case m.keys.RejectAll.matches(msg):
		return m, m.forPending(m.onReject)
	}

	return m, nil
}

func (m model) forPending(action func(string) tea.Cmd) tea.Cmd {
	var cmds []tea.Cmd
	for _, task := range m.tasks {
		if task.Status == queue.TaskStatusPending {
			cmds = append(cmds, action(task.ID))
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m model) current() *queue.Task {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.cursor]
}

func (m model) indexOf(taskID string) int {
	for i, task := range m.tasks {
		if task.ID == taskID {
			return i
		}
	}
	return -1
}

func (m model) View() string {
	if m.showingHelp {
		return m.renderer.RenderHelp(m.keys)
	}
	return m.renderer.Render(&m)
}
