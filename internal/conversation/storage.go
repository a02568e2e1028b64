package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConversationNotFound is returned by Get for unknown ids.
var ErrConversationNotFound = errors.New("conversation not found")

// Storage persists transcripts.
type Storage interface {
	Save(conv *Conversation) error
	Get(id string) (*Conversation, error)
}

// FileStorage keeps one transcript per directory:
// <root>/YYYYMMDD/<id>/messages.json, dated by creation day.
type FileStorage struct {
	conversationsDir string
}

func NewFileStorage(conversationsDir string) *FileStorage {
	return &FileStorage{
		conversationsDir: conversationsDir,
	}
}

// GetDatePath returns the day directory a conversation is stored under.
func (s *FileStorage) GetDatePath(conv *Conversation) string {
	return filepath.Join(s.conversationsDir, conv.CreatedAt.Format("20060102"))
}

// GetConversationPath finds the directory of a stored conversation.
func (s *FileStorage) GetConversationPath(convID string) (string, error) {
	entries, err := os.ReadDir(s.conversationsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrConversationNotFound, convID)
		}
		return "", fmt.Errorf("failed to read conversations directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		convPath := filepath.Join(s.conversationsDir, entry.Name(), convID)
		if _, err := os.Stat(convPath); err == nil {
			return convPath, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrConversationNotFound, convID)
}

// Save writes the transcript, replacing an earlier version.
func (s *FileStorage) Save(conv *Conversation) error {
	convPath := filepath.Join(s.GetDatePath(conv), conv.ID)
	if err := os.MkdirAll(convPath, 0755); err != nil {
		return fmt.Errorf("failed to create conversation directory: %w", err)
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	messagesFile := filepath.Join(convPath, "messages.json")
	if err := os.WriteFile(messagesFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write messages file: %w", err)
	}
	return nil
}

// Get loads a transcript by id.
func (s *FileStorage) Get(id string) (*Conversation, error) {
	convPath, err := s.GetConversationPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(convPath, "messages.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}
