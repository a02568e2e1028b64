package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/core"
	"github.com/Lin-Jiong-HDU/wissen/internal/core/execution"
	"github.com/Lin-Jiong-HDU/wissen/internal/core/queue"
	"github.com/Lin-Jiong-HDU/wissen/internal/core/tui"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

// getTasksCommand returns the tasks command
func getTasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Eingereihte Aktionen freigeben oder ablehnen",
		Long: `Öffnet die Freigabeliste für Aktionen, die 'wissen run' eingereiht hat.
Freigegebene Aktionen werden sofort ausgeführt.`,
		Args: cobra.NoArgs,
		RunE: runTasks,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Alle freigegebenen Aktionen ausführen",
		Args:  cobra.NoArgs,
		RunE:  runApprovedTasks,
	})
	return cmd
}

// sessionQueue is the queue of one session.
type sessionQueue struct {
	sessionID string
	queue     *queue.Manager
}

func sessionsDir() (string, error) {
	configDir, err := storage.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, storage.SessionDirName), nil
}

// loadAllQueues opens the queue of every session that has one, oldest
// session first.
func loadAllQueues(dir string) ([]sessionQueue, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var queues []sessionQueue
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		queueFile := filepath.Join(dir, entry.Name(), "queue.json")
		if _, err := os.Stat(queueFile); err != nil {
			continue
		}
		q, err := queue.NewQueue(queueFile, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", entry.Name(), err)
		}
		queues = append(queues, sessionQueue{sessionID: entry.Name(), queue: q})
	}
	sort.Slice(queues, func(i, j int) bool { return queues[i].sessionID < queues[j].sessionID })
	return queues, nil
}

// findQueueForTask finds the queue that holds taskID.
func findQueueForTask(queues []sessionQueue, taskID string) *queue.Manager {
	for _, sq := range queues {
		if _, err := sq.queue.GetTask(taskID); err == nil {
			return sq.queue
		}
	}
	return nil
}

// taskRunner executes approved tasks of any session.
type taskRunner struct {
	app *app
	out io.Writer
}

func (r taskRunner) executor(q *queue.Manager) *execution.TaskExecutor {
	cwd, _ := os.Getwd()
	session := storage.NewSession(cwd)
	executor := r.app.executor(session, core.AllowAll, nil, r.out)
	return execution.NewTaskExecutor(q, session, executor, r.app.logger)
}

func runTasks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, err := sessionsDir()
	if err != nil {
		return err
	}
	queues, err := loadAllQueues(dir)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	var pending []*queue.Task
	for _, sq := range queues {
		pending = append(pending, sq.queue.GetPendingTasks()...)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	// Task output would tear the TUI apart; results are shown per task.
	runner := taskRunner{app: a, out: io.Discard}

	onAuthorize := func(taskID string) tea.Cmd {
		return func() tea.Msg {
			q := findQueueForTask(queues, taskID)
			if q == nil || q.ApproveTask(taskID) != nil {
				return tui.AuthorizeResultMsg{TaskID: taskID, Success: false}
			}
			go func() {
				if err := runner.executor(q).ExecuteTask(ctx, taskID); err != nil {
					a.logger.Error("Task failed", zap.String("task", taskID), zap.Error(err))
				}
			}()
			return tui.AuthorizeResultMsg{TaskID: taskID, Success: true}
		}
	}

	onReject := func(taskID string) tea.Cmd {
		return func() tea.Msg {
			q := findQueueForTask(queues, taskID)
			if q == nil || q.RejectTask(taskID) != nil {
				return tui.RejectResultMsg{TaskID: taskID, Success: false}
			}
			return tui.RejectResultMsg{TaskID: taskID, Success: true}
		}
	}

	reload := func(taskID string) *queue.Task {
		q := findQueueForTask(queues, taskID)
		if q == nil {
			return nil
		}
		task, err := q.GetTask(taskID)
		if err != nil {
			return nil
		}
		return task
	}

	model := tui.NewModelWithOptions(pending, onAuthorize, onReject, reload)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func runApprovedTasks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	dir, err := sessionsDir()
	if err != nil {
		return err
	}
	queues, err := loadAllQueues(dir)
	if err != nil {
		return fmt.Errorf("failed to load queues: %w", err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	runner := taskRunner{app: a, out: out}

	executed, failed := 0, 0
	var lastErr error
	for _, sq := range queues {
		if len(sq.queue.GetApprovedTasks()) == 0 {
			continue
		}

		fmt.Fprintf(out, "Sitzung %s:\n", sq.sessionID)
		done, err := runner.executor(sq.queue).ExecuteAllApproved(ctx)
		if err != nil {
			lastErr = err
		}

		for _, task := range done {
			executed++
			if task.Status == queue.TaskStatusFailed {
				failed++
				fmt.Fprintf(out, "  ✗ [%s] %s\n", task.ShortID(), task.Summary)
				if task.Result != nil {
					fmt.Fprintf(out, "    %s%s\n", task.Result.Error, task.Result.Status)
				}
				continue
			}
			fmt.Fprintf(out, "  ✓ [%s] %s\n", task.ShortID(), task.Summary)
		}
	}

	if executed == 0 {
		fmt.Fprintln(out, "Keine freigegebenen Aufgaben")
		fmt.Fprintln(out, "Tipp: 'wissen tasks' zeigt eingereihte Aufgaben zur Freigabe")
		return lastErr
	}

	fmt.Fprintf(out, "\n%d Aufgaben ausgeführt", executed)
	if failed > 0 {
		fmt.Fprintf(out, " (%d fehlgeschlagen)", failed)
	}
	fmt.Fprintln(out)
	return lastErr
}
