package conversation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

// mockChatProvider records the messages of the last call.
type mockChatProvider struct {
	response string
	err      error
	last     []ai.Message
}

func (m *mockChatProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	m.last = messages
	return m.response, m.err
}

func (m *mockChatProvider) ChatStream(ctx context.Context, messages []ai.Message) (<-chan string, error) {
	m.last = messages
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, word := range strings.SplitAfter(m.response, " ") {
			ch <- word
		}
	}()
	return ch, nil
}

type mockRetriever struct {
	results []knowledge.Result
	err     error
	query   string
}

func (m *mockRetriever) Search(ctx context.Context, query string, topK int) ([]knowledge.Result, error) {
	m.query = query
	return m.results, m.err
}

type mockStats struct{ info knowledge.CollectionInfo }

func (m mockStats) Info(ctx context.Context, name string) (knowledge.CollectionInfo, error) {
	return m.info, nil
}

func TestManager_Greeting(t *testing.T) {
	provider := &mockChatProvider{response: "Hallo! Wie kann ich helfen?"}
	session := storage.NewSession(t.TempDir())
	manager := NewManager(provider, session, Config{Prompts: NewPromptLoader(t.TempDir())})

	answer, err := manager.Answer(context.Background(), ModeGreeting, "hallo")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "Hallo! Wie kann ich helfen?" {
		t.Errorf("Unexpected answer: %s", answer)
	}

	if len(provider.last) != 2 {
		t.Fatalf("Expected system + user message, got %d", len(provider.last))
	}
	if provider.last[0].Role != "system" || !strings.Contains(provider.last[0].Content, "freundlicher Assistent") {
		t.Errorf("Expected greeting system prompt, got %+v", provider.last[0])
	}
	if provider.last[1].Content != "hallo" {
		t.Errorf("Expected raw text as user message, got %q", provider.last[1].Content)
	}

	if got := len(session.History()); got != 2 {
		t.Errorf("Expected 2 history messages, got %d", got)
	}
}

func TestManager_MetaIncludesCollectionStats(t *testing.T) {
	provider := &mockChatProvider{response: "Ich bin ein lokaler Assistent."}
	session := storage.NewSession(t.TempDir())
	stats := mockStats{info: knowledge.CollectionInfo{Name: "projekte", Chunks: 42, Documents: 7}}
	manager := NewManager(provider, session, Config{Collections: stats})

	if _, err := manager.Answer(context.Background(), ModeMeta, "was kannst du"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	user := provider.last[len(provider.last)-1].Content
	for _, want := range []string{"Collection: projekte", "Anzahl Chunks: 42", "Frage des Nutzers: was kannst du"} {
		if !strings.Contains(user, want) {
			t.Errorf("Expected %q in meta prompt:\n%s", want, user)
		}
	}
}

func TestManager_RAG(t *testing.T) {
	provider := &mockChatProvider{response: "Die Kündigungsfrist beträgt drei Monate [1]."}
	retriever := &mockRetriever{results: []knowledge.Result{
		{Source: "/docs/vertrag.md", Content: "Kündigungsfrist: 3 Monate", Score: 0.03},
	}}
	session := storage.NewSession(t.TempDir())
	store := NewFileStorage(t.TempDir())
	manager := NewManager(provider, session, Config{Retriever: retriever, Storage: store})

	if len(manager.LastSources()) != 0 {
		t.Fatal("Expected no sources before the first answer")
	}

	_, err := manager.Answer(context.Background(), ModeRAG, "Wie lang ist die Kündigungsfrist?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if retriever.query != "Wie lang ist die Kündigungsfrist?" {
		t.Errorf("Unexpected search query: %q", retriever.query)
	}
	user := provider.last[len(provider.last)-1].Content
	if !strings.Contains(user, "[1] /docs/vertrag.md\nKündigungsfrist: 3 Monate") {
		t.Errorf("Expected numbered context in prompt:\n%s", user)
	}

	sources := manager.LastSources()
	if len(sources) != 1 || sources[0].Source != "/docs/vertrag.md" {
		t.Errorf("Unexpected sources: %+v", sources)
	}

	conv, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("Expected transcript to be saved: %v", err)
	}
	if len(conv.Messages) != 2 || conv.Messages[1].Sources[0] != "/docs/vertrag.md" {
		t.Errorf("Unexpected transcript: %+v", conv.Messages)
	}

	// a greeting keeps the sources of the last RAG answer
	if _, err := manager.Answer(context.Background(), ModeGreeting, "danke"); err != nil {
		t.Fatal(err)
	}
	if len(manager.LastSources()) != 1 {
		t.Error("Expected sources to survive a greeting")
	}

	// a new manager for the same session continues the transcript
	resumed := NewManager(provider, session, Config{Storage: store})
	if _, err := resumed.Answer(context.Background(), ModeGreeting, "hallo"); err != nil {
		t.Fatal(err)
	}
	conv, _ = store.Get(session.ID)
	if len(conv.Messages) != 6 {
		t.Errorf("Expected 6 transcript messages, got %d", len(conv.Messages))
	}
}

func TestManager_RAGWithoutHits(t *testing.T) {
	provider := &mockChatProvider{response: "Dazu finde ich nichts."}
	manager := NewManager(provider, storage.NewSession(t.TempDir()), Config{Retriever: &mockRetriever{}})

	if _, err := manager.Answer(context.Background(), ModeRAG, "Frage"); err != nil {
		t.Fatal(err)
	}
	if user := provider.last[len(provider.last)-1].Content; !strings.Contains(user, "Keine relevanten Dokumente gefunden.") {
		t.Errorf("Expected empty context notice:\n%s", user)
	}
}

func TestManager_Stream(t *testing.T) {
	var out bytes.Buffer
	provider := &mockChatProvider{response: "eins zwei drei"}
	manager := NewManager(provider, storage.NewSession(t.TempDir()), Config{Stream: &out})

	if !manager.Streaming() {
		t.Fatal("Expected streaming to be on")
	}

	answer, err := manager.Answer(context.Background(), ModeGreeting, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "eins zwei drei" {
		t.Errorf("Expected joined answer, got %q", answer)
	}
	if out.String() != "eins zwei drei\n" {
		t.Errorf("Expected streamed tokens, got %q", out.String())
	}
}

func TestManager_HistoryLimit(t *testing.T) {
	provider := &mockChatProvider{response: "ok"}
	session := storage.NewSession(t.TempDir())
	manager := NewManager(provider, session, Config{HistoryLimit: 2})

	for i := 0; i < 3; i++ {
		if _, err := manager.Answer(context.Background(), ModeGreeting, "hi"); err != nil {
			t.Fatal(err)
		}
	}

	// system + 2 history + user
	if len(provider.last) != 4 {
		t.Errorf("Expected 4 messages, got %d", len(provider.last))
	}
}

func TestManager_ClearHistory(t *testing.T) {
	dir := t.TempDir()
	provider := &mockChatProvider{response: "ok"}
	session := storage.NewSession(dir)
	manager := NewManager(provider, session, Config{Retriever: &mockRetriever{results: []knowledge.Result{{Source: "/a"}}}})

	if _, err := manager.Answer(context.Background(), ModeRAG, "frage"); err != nil {
		t.Fatal(err)
	}
	manager.ClearHistory()

	if len(session.History()) != 0 {
		t.Error("Expected empty history")
	}
	if len(manager.LastSources()) != 0 {
		t.Error("Expected sources to be cleared")
	}
	if session.Cwd() != dir {
		t.Errorf("Expected cwd to be kept, got %s", session.Cwd())
	}
}

func TestManager_Errors(t *testing.T) {
	session := storage.NewSession(t.TempDir())

	failing := NewManager(&mockChatProvider{err: errors.New("connection refused")}, session, Config{})
	if _, err := failing.Answer(context.Background(), ModeGreeting, "hi"); err == nil {
		t.Error("Expected provider error")
	}
	if len(session.History()) != 0 {
		t.Error("Failed answers must not be recorded")
	}

	searchFails := NewManager(&mockChatProvider{response: "x"}, session, Config{Retriever: &mockRetriever{err: errors.New("db locked")}})
	if _, err := searchFails.Answer(context.Background(), ModeRAG, "frage"); err == nil {
		t.Error("Expected search error")
	}

	noProvider := NewManager(nil, session, Config{})
	if _, err := noProvider.Answer(context.Background(), ModeGreeting, "hi"); err == nil {
		t.Error("Expected error without provider")
	}

	if _, err := NewManager(&mockChatProvider{}, session, Config{}).Answer(context.Background(), Mode("x"), "hi"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}
