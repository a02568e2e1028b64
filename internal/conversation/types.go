package conversation

import (
	"time"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
)

// Mode selects the system prompt and the context an answer gets.
type Mode string

const (
	ModeGreeting Mode = "greeting"
	ModeMeta     Mode = "meta"
	ModeRAG      Mode = "rag"
)

// Modes lists every mode that has a prompt file.
var Modes = []Mode{ModeGreeting, ModeMeta, ModeRAG}

// Conversation is the archived transcript of one chat session.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one transcript entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Mode      Mode      `json:"mode,omitempty"`
	Sources   []string  `json:"sources,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewConversation starts a transcript. The id is usually the session id.
func NewConversation(id string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        id,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends msg, stamping it if needed.
func (c *Conversation) AddMessage(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = msg.Timestamp
}

// ToAIFormat drops the transcript-only fields.
func (m *Message) ToAIFormat() ai.Message {
	return ai.Message{
		Role:    m.Role,
		Content: m.Content,
	}
}
