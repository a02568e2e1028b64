package queue

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_SaveAndLoad(t *testing.T) {
	queueFile := filepath.Join(t.TempDir(), "nested", "queue.json")
	store := NewStore(queueFile)

	tasks := []*Task{
		NewTask("s1", "lösche /tmp/a", "/home", deleteCommand("/tmp/a"), nil),
		NewTask("s1", "lösche /tmp/b", "/home", deleteCommand("/tmp/b"), nil),
	}
	tasks[1].TransitionStatus(TaskStatusApproved)

	if err := store.Save(tasks); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(queueFile))
	if len(entries) != 1 {
		t.Errorf("expected only queue.json, found %d entries", len(entries))
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d tasks, want 2", len(loaded))
	}
	if loaded[0].Utterance != "lösche /tmp/a" || loaded[1].Status != TaskStatusApproved {
		t.Errorf("unexpected tasks %+v %+v", loaded[0], loaded[1])
	}
}

func TestStore_Load_Missing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "queue.json"))

	tasks, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty slice, got %v", tasks)
	}
}

func TestStore_Load_NoTasksKey(t *testing.T) {
	queueFile := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(queueFile, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	tasks, err := NewStore(queueFile).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tasks == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestStore_InvalidJSON(t *testing.T) {
	queueFile := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(queueFile, []byte("{nicht json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(queueFile).Load(); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestStore_NewerVersionRefused(t *testing.T) {
	queueFile := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(queueFile, []byte(`{"version": 99, "tasks": []}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(queueFile).Load(); err == nil {
		t.Error("expected an error for a newer file version")
	}
}
