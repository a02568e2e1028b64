package terminal

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lin-Jiong-HDU/wissen/internal/conversation"
	"github.com/Lin-Jiong-HDU/wissen/internal/core"
	"github.com/Lin-Jiong-HDU/wissen/internal/core/security"
	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

type fakeConversation struct {
	streaming bool
	sources   []knowledge.Result
	cleared   bool
	answer    string
}

func (f *fakeConversation) Streaming() bool                 { return f.streaming }
func (f *fakeConversation) LastSources() []knowledge.Result { return f.sources }
func (f *fakeConversation) ClearHistory()                   { f.cleared = true }

func (f *fakeConversation) Answer(_ context.Context, mode conversation.Mode, text string) (string, error) {
	return f.answer, nil
}

type fixture struct {
	repl    *REPL
	conv    *fakeConversation
	session *storage.Session
	out     *strings.Builder
	dir     string
}

func newFixture(t *testing.T, stdin string) *fixture {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	session := storage.NewSession(dir)
	conv := &fakeConversation{answer: "Hallo! Wie kann ich helfen?"}
	out := &strings.Builder{}

	executor := core.NewExecutor(session, core.Config{
		Security:   security.NewSecurityController(nil),
		Authorizer: NewConfirmer(bufio.NewReader(strings.NewReader(stdin)), out),
		Answerer:   conv,
	})
	repl := NewREPL(core.NewEngine(executor, nil), conv, session, out, nil)
	renderer, err := conversation.NewRenderer(80, false)
	if err != nil {
		t.Fatal(err)
	}
	repl.SetRenderer(renderer)

	return &fixture{repl: repl, conv: conv, session: session, out: out, dir: dir}
}

func TestREPL_ExitWords(t *testing.T) {
	for _, input := range []string{"exit", "quit", "/exit", "QUIT"} {
		t.Run(input, func(t *testing.T) {
			f := newFixture(t, "")
			if err := f.repl.ProcessInput(context.Background(), input); !errors.Is(err, ErrUserExit) {
				t.Errorf("err = %v, want ErrUserExit", err)
			}
		})
	}
}

func TestREPL_Clear(t *testing.T) {
	f := newFixture(t, "")

	if err := f.repl.ProcessInput(context.Background(), "clear"); err != nil {
		t.Fatal(err)
	}
	if !f.conv.cleared {
		t.Error("history not cleared")
	}
	if f.session.Cwd() != filepath.Clean(f.dir) {
		t.Error("clear must keep the working directory")
	}
}

func TestREPL_HelpAndSources(t *testing.T) {
	f := newFixture(t, "")
	f.conv.sources = []knowledge.Result{{Source: "vertrag.pdf", Score: 0.5}}

	_ = f.repl.ProcessInput(context.Background(), "/help")
	_ = f.repl.ProcessInput(context.Background(), "/sources")

	out := f.out.String()
	if !strings.Contains(out, "/sources") || !strings.Contains(out, "1. vertrag.pdf") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestREPL_ExecutesCommands(t *testing.T) {
	f := newFixture(t, "")
	if err := os.Mkdir(filepath.Join(f.dir, "projekte"), 0755); err != nil {
		t.Fatal(err)
	}

	_ = f.repl.ProcessInput(context.Background(), "gehe zu ./projekte")

	if f.session.Cwd() != filepath.Join(f.dir, "projekte") {
		t.Errorf("cwd = %s", f.session.Cwd())
	}
	if !strings.Contains(f.out.String(), "✅ Navigiert zu: ") {
		t.Errorf("output = %q", f.out.String())
	}
}

func TestREPL_ConversationalAnswer(t *testing.T) {
	f := newFixture(t, "")

	_ = f.repl.ProcessInput(context.Background(), "hallo")
	if !strings.Contains(f.out.String(), "Hallo! Wie kann ich helfen?") {
		t.Errorf("answer not printed: %q", f.out.String())
	}
}

func TestREPL_StreamedAnswerNotRepeated(t *testing.T) {
	f := newFixture(t, "")
	f.conv.streaming = true

	_ = f.repl.ProcessInput(context.Background(), "hallo")
	if strings.Contains(f.out.String(), "Hallo! Wie kann ich helfen?") {
		t.Error("streamed answer printed twice")
	}
}

func TestREPL_ShowSourcesAfterRAG(t *testing.T) {
	f := newFixture(t, "")
	f.conv.sources = []knowledge.Result{{Source: "angebot.md", Score: 0.8}}
	f.repl.SetShowSources(true)

	_ = f.repl.ProcessInput(context.Background(), "was steht im angebot für müller")
	if !strings.Contains(f.out.String(), "angebot.md") {
		t.Errorf("sources missing:\n%s", f.out.String())
	}
}

func TestREPL_ConfirmationUsesSharedInput(t *testing.T) {
	f := newFixture(t, "s\n")
	target := filepath.Join(f.dir, "alt")
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatal(err)
	}

	_ = f.repl.ProcessInput(context.Background(), "lösche "+target)

	if _, err := os.Stat(target); err != nil {
		t.Error("skipped delete removed the directory")
	}
	if !strings.Contains(f.out.String(), "⊘ Übersprungen") {
		t.Errorf("output = %q", f.out.String())
	}
}

func TestREPL_Run(t *testing.T) {
	f := newFixture(t, "")
	in := bufio.NewReader(strings.NewReader("wo bin ich\n\nexit\nwo bin ich\n"))

	if err := f.repl.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Count(f.out.String(), "📂 Aktuelles Verzeichnis"); got != 1 {
		t.Errorf("processed %d lines after exit handling, want 1", got)
	}
	if _, err := storage.LoadSession(f.session.ID); err != nil {
		t.Errorf("session not saved: %v", err)
	}
}

func TestREPL_RunEndOfInput(t *testing.T) {
	f := newFixture(t, "")
	in := bufio.NewReader(strings.NewReader("wo bin ich"))

	if err := f.repl.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(f.out.String(), "📂 Aktuelles Verzeichnis") {
		t.Error("last line without newline was dropped")
	}
}
