package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lin-Jiong-HDU/wissen/internal/core/queue"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

func TestTasksCommand_Registered(t *testing.T) {
	cmd := getTasksCommand()
	if cmd.Use != "tasks" || cmd.Short == "" {
		t.Fatalf("unexpected tasks command %q", cmd.Use)
	}
	sub, _, err := cmd.Find([]string{"run"})
	if err != nil || sub.Name() != "run" {
		t.Error("Expected 'tasks run'")
	}
}

func TestLoadAllQueues(t *testing.T) {
	dir := t.TempDir()

	if queues, err := loadAllQueues(filepath.Join(dir, "missing")); err != nil || queues != nil {
		t.Fatalf("missing dir: %v, %v", queues, err)
	}

	for _, id := range []string{"2026-02", "2026-01"} {
		q, err := queue.NewQueue(filepath.Join(dir, id, "queue.json"), id)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := q.AddTask("lösche /tmp/"+id, "/", router.Route("lösche /tmp/"+id), nil); err != nil {
			t.Fatal(err)
		}
	}
	// A session without deferred tasks has no queue file.
	if err := os.MkdirAll(filepath.Join(dir, "2026-03"), 0755); err != nil {
		t.Fatal(err)
	}

	queues, err := loadAllQueues(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(queues) != 2 || queues[0].sessionID != "2026-01" {
		t.Fatalf("unexpected queues %+v", queues)
	}

	task := queues[1].queue.GetAllTasks()[0]
	if findQueueForTask(queues, task.ID) != queues[1].queue {
		t.Error("task found in the wrong queue")
	}
	if findQueueForTask(queues, "missing") != nil {
		t.Error("unknown task should not be found")
	}
}

func TestRunHealthChecks(t *testing.T) {
	checks := []healthCheck{
		{"ok", func(context.Context) (string, error) { return "fine", nil }},
		{"broken", func(context.Context) (string, error) { return "", errors.New("down") }},
	}

	results := runHealthChecks(context.Background(), checks)
	if results[0].detail != "fine" || results[0].err != nil {
		t.Errorf("first check: %+v", results[0])
	}
	if results[1].err == nil || !strings.Contains(results[1].err.Error(), "down") {
		t.Errorf("second check: %+v", results[1])
	}
}
