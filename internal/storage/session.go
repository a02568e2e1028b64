package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
)

const (
	SessionDirName = "sessions"
	MaxHistory     = 100
)

// Session is the state of one chat process: the working directory that
// relative paths resolve against, plus the conversation history.
//
// A Session has a single owner, the REPL loop. It is handed to the
// executor and the conversation layer explicitly and is not safe for
// concurrent use.
type Session struct {
	ID        string       `json:"id"`
	StartedAt time.Time    `json:"started_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Dir       string       `json:"cwd"`
	Messages  []ai.Message `json:"messages"`

	// AutoSave persists the session after every AddMessage.
	AutoSave bool `json:"-"`
}

// NewSession starts a session in startDir.
func NewSession(startDir string) *Session {
	now := time.Now()
	return &Session{
		ID:        generateSessionID(),
		StartedAt: now,
		UpdatedAt: now,
		Dir:       filepath.Clean(startDir),
		Messages:  []ai.Message{},
	}
}

// Cwd returns the session directory.
func (s *Session) Cwd() string {
	return s.Dir
}

// SetCwd changes the session directory. Only a successful navigation
// should call it.
func (s *Session) SetCwd(dir string) {
	s.Dir = filepath.Clean(dir)
	s.UpdatedAt = time.Now()
}

// AddMessage appends a message to the history
func (s *Session) AddMessage(role, content string) {
	s.Messages = append(s.Messages, ai.Message{
		Role:    role,
		Content: content,
	})
	s.UpdatedAt = time.Now()

	if s.AutoSave {
		_ = s.Save()
	}
}

// History returns a copy of the messages, oldest first.
func (s *Session) History() []ai.Message {
	out := make([]ai.Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// ClearHistory drops the conversation history. The working directory is kept.
func (s *Session) ClearHistory() {
	s.Messages = []ai.Message{}
	s.UpdatedAt = time.Now()
}

// Save writes the session to ~/.wissen/sessions/<id>/session.json
func (s *Session) Save() error {
	sessionDir, err := GetSessionDir(s.ID)
	if err != nil {
		return err
	}
	return s.saveTo(filepath.Join(sessionDir, "session.json"))
}

func (s *Session) saveTo(path string) error {
	s.UpdatedAt = time.Now()

	// Trim to max history
	if len(s.Messages) > MaxHistory {
		s.Messages = s.Messages[len(s.Messages)-MaxHistory:]
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return nil
}

// LoadSession reads a saved session.
func LoadSession(id string) (*Session, error) {
	sessionDir, err := GetSessionDir(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(sessionDir, "session.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func generateSessionID() string {
	now := time.Now()
	return fmt.Sprintf("%d-%02d-%02d-%02d%02d%02d-%09d",
		now.Year(),
		now.Month(),
		now.Day(),
		now.Hour(),
		now.Minute(),
		now.Second(),
		now.Nanosecond())
}

// GetSessionDir returns (and creates) the directory of one session.
func GetSessionDir(sessionID string) (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	sessionDir := filepath.Join(configDir, SessionDirName, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return sessionDir, nil
}
