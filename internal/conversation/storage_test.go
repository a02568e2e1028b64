package conversation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStorage_SaveAndGet(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage(dir)

	conv := NewConversation("sess-1")
	conv.CreatedAt = time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)
	conv.AddMessage(Message{Role: "user", Content: "Was steht im Vertrag?", Mode: ModeRAG})
	conv.AddMessage(Message{Role: "assistant", Content: "Laut [1] ...", Mode: ModeRAG, Sources: []string{"/docs/vertrag.md"}})

	if err := storage.Save(conv); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	want := filepath.Join(dir, "20261018", "sess-1", "messages.json")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("Expected transcript at %s: %v", want, err)
	}

	loaded, err := storage.Get("sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(loaded.Messages))
	}
	if loaded.Messages[1].Sources[0] != "/docs/vertrag.md" {
		t.Errorf("Expected sources to round-trip, got %v", loaded.Messages[1].Sources)
	}

	// saving again overwrites in place
	conv.AddMessage(Message{Role: "user", Content: "Danke"})
	if err := storage.Save(conv); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	loaded, _ = storage.Get("sess-1")
	if len(loaded.Messages) != 3 {
		t.Errorf("Expected 3 messages after resave, got %d", len(loaded.Messages))
	}
}

func TestFileStorage_GetMissing(t *testing.T) {
	tests := []struct {
		name string
		dir  string
	}{
		{"empty root", t.TempDir()},
		{"root does not exist", filepath.Join(t.TempDir(), "nope")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileStorage(tt.dir).Get("unknown")
			if !errors.Is(err, ErrConversationNotFound) {
				t.Errorf("Expected ErrConversationNotFound, got %v", err)
			}
		})
	}
}
