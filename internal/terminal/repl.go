// Package terminal is the interactive chat loop.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/conversation"
	"github.com/Lin-Jiong-HDU/wissen/internal/core"
	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

// ErrUserExit is returned when the user asks to leave the chat.
var ErrUserExit = errors.New("user requested exit")

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// Conversation is the part of the answer layer the REPL talks to directly.
type Conversation interface {
	Streaming() bool
	LastSources() []knowledge.Result
	ClearHistory()
}

// REPL is the interactive chat. It owns the session for its lifetime.
type REPL struct {
	engine       *core.Engine
	conversation Conversation
	session      *storage.Session
	renderer     *conversation.Renderer
	out          io.Writer
	showSources  bool
	logger       *zap.Logger
}

// NewREPL creates a REPL writing to out.
func NewREPL(engine *core.Engine, conv Conversation, session *storage.Session, out io.Writer, logger *zap.Logger) *REPL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{
		engine:       engine,
		conversation: conv,
		session:      session,
		out:          out,
		logger:       logger,
	}
}

// SetRenderer sets the markdown renderer for answers.
func (r *REPL) SetRenderer(renderer *conversation.Renderer) {
	r.renderer = renderer
}

// SetShowSources prints the sources after every document answer.
func (r *REPL) SetShowSources(show bool) {
	r.showSources = show
}

// ProcessInput handles one line.
func (r *REPL) ProcessInput(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	switch strings.ToLower(input) {
	case "exit", "quit", "/exit", "/quit":
		r.DisplayExitSummary()
		return ErrUserExit
	case "clear", "/clear":
		r.conversation.ClearHistory()
		fmt.Fprintln(r.out, "🧹 Verlauf gelöscht")
		return nil
	case "/help":
		r.DisplayHelp()
		return nil
	case "/sources":
		fmt.Fprintln(r.out, conversation.FormatSources(r.conversation.LastSources()))
		return nil
	}

	cmd, status := r.engine.Process(ctx, input)
	r.display(cmd, status)
	return nil
}

func (r *REPL) display(cmd router.Command, status string) {
	if !core.Conversational(cmd) {
		fmt.Fprintln(r.out, status)
		return
	}

	failed := strings.HasPrefix(status, "❌")
	switch {
	case failed:
		fmt.Fprintln(r.out, status)
	case r.conversation.Streaming():
		// Already printed token by token.
		fmt.Fprintln(r.out)
	default:
		fmt.Fprintln(r.out, r.renderer.Render(status))
	}

	if _, rag := cmd.(router.RagFallback); rag && r.showSources && !failed {
		fmt.Fprintln(r.out, subtleStyle.Render(conversation.FormatSources(r.conversation.LastSources())))
	}
}

// Run reads lines from in until exit or end of input. The same reader must
// back the Confirmer so answers to confirmation prompts are not lost.
func (r *REPL) Run(ctx context.Context, in *bufio.Reader) error {
	for {
		fmt.Fprint(r.out, r.prompt())

		line, err := in.ReadString('\n')
		if line != "" {
			if perr := r.ProcessInput(ctx, line); perr != nil {
				if errors.Is(perr, ErrUserExit) {
					return r.saveSession()
				}
				return perr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return r.saveSession()
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
		if ctx.Err() != nil {
			return r.saveSession()
		}
		fmt.Fprintln(r.out)
	}
}

func (r *REPL) saveSession() error {
	if err := r.session.Save(); err != nil {
		r.logger.Warn("Failed to save session", zap.String("session", r.session.ID), zap.Error(err))
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// prompt shows the session directory, with the home directory as ~.
func (r *REPL) prompt() string {
	dir := r.session.Cwd()
	if home, err := os.UserHomeDir(); err == nil {
		if rel, err := filepath.Rel(home, dir); err == nil && !strings.HasPrefix(rel, "..") {
			dir = filepath.Join("~", rel)
		}
	}
	return promptStyle.Render("wissen "+dir) + " › "
}

// DisplayHelp lists what can be typed.
func (r *REPL) DisplayHelp() {
	help := `
Beispiele:
  zeige ~/Desktop                     Inhalt eines Ordners
  gehe zu ~/Projekte, wo bin ich      Navigation
  baum ./docs                         Verzeichnisstruktur
  erstelle ordner Archiv              Ordner anlegen
  verschiebe a.txt nach ./Archiv      Verschieben und kopieren
  räume den Desktop auf               Vorschau, "... jetzt" führt aus
  organisiere ~/Docs mit wissen       Ordnen nach Inhalt
  indexiere ~/Docs -r                 Dokumente lernen
  erstelle wissensdatenbank Kunden    Wissensdatenbanken verwalten
  finde ähnliche zu ~/Docs/a.pdf      Ähnliche Dokumente

Alles andere ist eine Frage an deine Dokumente.

Befehle:
  /help               diese Hilfe
  /sources            Quellen der letzten Antwort
  clear               Verlauf löschen
  exit, quit          beenden
`
	fmt.Fprintln(r.out, help)
}

// DisplayExitSummary prints where the session was saved.
func (r *REPL) DisplayExitSummary() {
	fmt.Fprintln(r.out, "👋 Bis bald")
	fmt.Fprintln(r.out, subtleStyle.Render("   Sitzung: "+r.session.ID))
}
