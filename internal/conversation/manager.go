// Package conversation answers chat turns that are not commands: greetings,
// questions about the assistant and questions about the indexed documents.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

const (
	DefaultTopK         = 10
	DefaultHistoryLimit = 20
)

// Retriever finds context for RAG answers.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]knowledge.Result, error)
}

// CollectionStats describes the active collection for meta answers.
type CollectionStats interface {
	Info(ctx context.Context, name string) (knowledge.CollectionInfo, error)
}

// Config wires the optional collaborators of a Manager.
type Config struct {
	Prompts     *PromptLoader
	Storage     Storage
	Retriever   Retriever
	Collections CollectionStats
	TopK        int
	// HistoryLimit caps how many earlier session messages are sent along.
	HistoryLimit int
	// Stream receives answer tokens as they arrive. nil disables streaming.
	Stream io.Writer
	Logger *zap.Logger
}

// Manager produces answers and keeps the session history and transcript.
type Manager struct {
	provider ai.Provider
	session  *storage.Session
	cfg      Config
	logger   *zap.Logger

	mu          sync.Mutex
	conv        *Conversation
	lastSources []knowledge.Result
}

// NewManager creates a Manager for session. An archived transcript of the
// same session is continued.
func NewManager(provider ai.Provider, session *storage.Session, cfg Config) *Manager {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{provider: provider, session: session, cfg: cfg, logger: logger}
	if cfg.Storage != nil {
		if conv, err := cfg.Storage.Get(session.ID); err == nil {
			m.conv = conv
		} else if !errors.Is(err, ErrConversationNotFound) {
			logger.Warn("Failed to load transcript", zap.String("session", session.ID), zap.Error(err))
		}
	}
	if m.conv == nil {
		m.conv = NewConversation(session.ID)
	}
	return m
}

// Streaming reports whether answers are written to the stream as they
// arrive.
func (m *Manager) Streaming() bool {
	return m.cfg.Stream != nil
}

// Answer replies to text in the given mode.
func (m *Manager) Answer(ctx context.Context, mode Mode, text string) (string, error) {
	if m.provider == nil {
		return "", fmt.Errorf("no language model configured")
	}

	prompt, sources, err := m.buildPrompt(ctx, mode, text)
	if err != nil {
		return "", err
	}

	messages := []ai.Message{{Role: "system", Content: m.cfg.Prompts.SystemPrompt(mode)}}
	history := m.session.History()
	if len(history) > m.cfg.HistoryLimit {
		history = history[len(history)-m.cfg.HistoryLimit:]
	}
	messages = append(messages, history...)
	messages = append(messages, ai.Message{Role: "user", Content: prompt})

	var answer string
	if m.cfg.Stream != nil {
		answer, err = m.stream(ctx, messages)
	} else {
		answer, err = m.provider.Chat(ctx, messages)
	}
	if err != nil {
		return "", fmt.Errorf("language model: %w", err)
	}

	m.record(mode, text, answer, sources)
	return answer, nil
}

func (m *Manager) stream(ctx context.Context, messages []ai.Message) (string, error) {
	chunks, err := m.provider.ChatStream(ctx, messages)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
		if _, err := io.WriteString(m.cfg.Stream, chunk); err != nil {
			m.logger.Debug("Stream write failed", zap.Error(err))
		}
	}
	io.WriteString(m.cfg.Stream, "\n")

	if err := ctx.Err(); err != nil {
		return full.String(), err
	}
	return full.String(), nil
}

func (m *Manager) buildPrompt(ctx context.Context, mode Mode, text string) (string, []knowledge.Result, error) {
	switch mode {
	case ModeGreeting:
		return text, nil, nil

	case ModeMeta:
		if m.cfg.Collections == nil {
			return text, nil, nil
		}
		info, err := m.cfg.Collections.Info(ctx, "")
		if err != nil {
			m.logger.Warn("Collection info unavailable", zap.Error(err))
			return text, nil, nil
		}
		return fmt.Sprintf(`Aktuelle Wissensdatenbank:
- Collection: %s
- Anzahl Dokumente: %d
- Anzahl Chunks: %d
- Status: green

Frage des Nutzers: %s

Beantworte die Frage über dich selbst:`, info.Name, info.Documents, info.Chunks, text), nil, nil

	case ModeRAG:
		var results []knowledge.Result
		if m.cfg.Retriever != nil {
			var err error
			results, err = m.cfg.Retriever.Search(ctx, text, m.cfg.TopK)
			if err != nil {
				return "", nil, fmt.Errorf("search: %w", err)
			}
		}
		return ragPrompt(text, results), results, nil

	default:
		return "", nil, fmt.Errorf("unknown answer mode %q", mode)
	}
}

func ragPrompt(question string, results []knowledge.Result) string {
	found := "Keine relevanten Dokumente gefunden."
	if len(results) > 0 {
		parts := make([]string, len(results))
		for i, r := range results {
			parts[i] = fmt.Sprintf("[%d] %s\n%s", i+1, sourceLabel(r, i), r.Content)
		}
		found = strings.Join(parts, "\n\n")
	}

	return fmt.Sprintf(`Kontext aus der Wissensdatenbank:

%s

Frage: %s

Antworte basierend auf dem obigen Kontext:`, found, question)
}

func (m *Manager) record(mode Mode, question, answer string, sources []knowledge.Result) {
	m.session.AddMessage("user", question)
	m.session.AddMessage("assistant", answer)

	m.mu.Lock()
	defer m.mu.Unlock()

	if mode == ModeRAG {
		m.lastSources = sources
	}

	var paths []string
	for _, s := range sources {
		paths = append(paths, s.Source)
	}
	m.conv.AddMessage(Message{Role: "user", Content: question, Mode: mode})
	m.conv.AddMessage(Message{Role: "assistant", Content: answer, Mode: mode, Sources: paths})

	if m.cfg.Storage != nil {
		if err := m.cfg.Storage.Save(m.conv); err != nil {
			m.logger.Warn("Failed to save transcript", zap.Error(err))
		}
	}
}

// LastSources returns the search hits behind the most recent RAG answer.
func (m *Manager) LastSources() []knowledge.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]knowledge.Result(nil), m.lastSources...)
}

// ClearHistory forgets the session history and the last sources. The
// transcript and the working directory are kept.
func (m *Manager) ClearHistory() {
	m.session.ClearHistory()

	m.mu.Lock()
	m.lastSources = nil
	m.mu.Unlock()
}
