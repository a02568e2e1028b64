package queue

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Lin-Jiong-HDU/wissen/internal/core/security"
)

func newTestQueue(t *testing.T, sessionID string) (*Manager, string) {
	t.Helper()
	queueFile := filepath.Join(t.TempDir(), "queue.json")
	q, err := NewQueue(queueFile, sessionID)
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	return q, queueFile
}

func addDelete(t *testing.T, q *Manager, path string) *Task {
	t.Helper()
	task, err := q.AddTask("lösche "+path, "/home", deleteCommand(path), &security.CheckResult{Allowed: true, RequiresAuth: true})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	return task
}

func TestQueue_AddTask(t *testing.T) {
	q, queueFile := newTestQueue(t, "session-123")

	task := addDelete(t, q, "/tmp/test")
	if task.Status != TaskStatusPending || task.SessionID != "session-123" {
		t.Errorf("unexpected task %+v", task)
	}

	reopened, err := NewQueue(queueFile, "other")
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	if tasks := reopened.GetAllTasks(); len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Errorf("task not persisted: %v", tasks)
	}
}

func TestQueue_FullWorkflow(t *testing.T) {
	q, queueFile := newTestQueue(t, "s1")
	task := addDelete(t, q, "/tmp/test")

	if err := q.ApproveTask(task.ID); err != nil {
		t.Fatalf("ApproveTask: %v", err)
	}
	if approved := q.GetApprovedTasks(); len(approved) != 1 {
		t.Fatalf("approved = %d, want 1", len(approved))
	}
	if err := q.MarkExecuting(task.ID); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}
	if err := q.SetTaskResult(task.ID, &Result{Status: "✅ Gelöscht: /tmp/test"}); err != nil {
		t.Fatalf("SetTaskResult: %v", err)
	}

	reopened, err := NewQueue(queueFile, "s1")
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != TaskStatusCompleted || got.Result == nil {
		t.Errorf("status = %s, result = %v", got.Status, got.Result)
	}
}

func TestQueue_FailedResult(t *testing.T) {
	q, _ := newTestQueue(t, "s1")
	task := addDelete(t, q, "/tmp/test")
	_ = q.ApproveTask(task.ID)
	_ = q.MarkExecuting(task.ID)

	if err := q.SetTaskResult(task.ID, &Result{Status: "❌ Pfad nicht gefunden: /tmp/test"}); err != nil {
		t.Fatal(err)
	}
	got, _ := q.GetTask(task.ID)
	if got.Status != TaskStatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
}

func TestQueue_RejectTask(t *testing.T) {
	q, _ := newTestQueue(t, "s1")
	task := addDelete(t, q, "/tmp/test")

	if err := q.RejectTask(task.ID); err != nil {
		t.Fatalf("RejectTask: %v", err)
	}
	if pending := q.GetPendingTasks(); len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
	if err := q.ApproveTask(task.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approve after reject: err = %v", err)
	}
}

func TestQueue_InvalidTransitions(t *testing.T) {
	q, _ := newTestQueue(t, "s1")
	task := addDelete(t, q, "/tmp/test")

	if err := q.MarkExecuting(task.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("executing a pending task: err = %v", err)
	}
	if err := q.SetTaskResult(task.ID, &Result{Status: "✅"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("result for a pending task: err = %v", err)
	}
	if err := q.ApproveTask("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("unknown task: err = %v", err)
	}
}

func TestQueue_GetTasksBySession(t *testing.T) {
	queueFile := filepath.Join(t.TempDir(), "queue.json")
	first, _ := NewQueue(queueFile, "s1")
	addDelete(t, first, "/tmp/a")

	second, _ := NewQueue(queueFile, "s2")
	addDelete(t, second, "/tmp/b")
	addDelete(t, second, "/tmp/c")

	if got := second.GetTasksBySession("s1"); len(got) != 1 {
		t.Errorf("s1 tasks = %d, want 1", len(got))
	}
	if got := second.GetTasksBySession("s2"); len(got) != 2 {
		t.Errorf("s2 tasks = %d, want 2", len(got))
	}
}

func TestQueue_ReturnsCopies(t *testing.T) {
	q, _ := newTestQueue(t, "s1")
	task := addDelete(t, q, "/tmp/test")

	tasks := q.GetAllTasks()
	tasks[0].Status = TaskStatusCompleted

	got, _ := q.GetTask(task.ID)
	if got.Status != TaskStatusPending {
		t.Error("caller mutation leaked into the queue")
	}
}

func TestQueue_ConcurrentAccess(t *testing.T) {
	q, _ := newTestQueue(t, "s1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.AddTask("lösche /tmp/x", "/home", deleteCommand("/tmp/x"), nil)
			_ = q.GetPendingTasks()
		}()
	}
	wg.Wait()

	if got := len(q.GetAllTasks()); got != 10 {
		t.Errorf("tasks = %d, want 10", got)
	}
}

func TestDeferrer_QueuesInsteadOfConfirming(t *testing.T) {
	q, _ := newTestQueue(t, "s1")
	cmd := deleteCommand("/tmp/alt")
	check := &security.CheckResult{Allowed: true, RequiresAuth: true}

	ok, msg := q.Deferrer("lösche /tmp/alt", "/home/anna").Authorize(context.Background(), cmd, check)
	if ok {
		t.Fatal("deferrer must not authorize")
	}

	pending := q.GetPendingTasks()
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	task := pending[0]
	if task.Utterance != "lösche /tmp/alt" || task.Cwd != "/home/anna" {
		t.Errorf("unexpected task %+v", task)
	}
	if !strings.HasPrefix(msg, "📋 Zur Freigabe eingereiht: ") || !strings.Contains(msg, task.ShortID()) {
		t.Errorf("message = %q", msg)
	}
}
