package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/wissen/internal/conversation"
	"github.com/Lin-Jiong-HDU/wissen/internal/core"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
	"github.com/Lin-Jiong-HDU/wissen/internal/terminal"
)

var (
	chatStrategy    string
	chatShowSources bool
	chatNoStream    bool
	chatNoRender    bool
)

func getChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interaktiven Chat starten",
		Long: `Startet den Chat. Dateibefehle, Wissensdatenbanken und Fragen an
deine Dokumente gehen alle über dieselbe Eingabe.`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}
	addChatFlags(cmd)
	return cmd
}

func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&chatStrategy, "strategy", "", "Suchstrategie: hybrid, semantic oder fulltext")
	cmd.Flags().BoolVar(&chatShowSources, "show-sources", false, "Quellen nach jeder Antwort anzeigen")
	cmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "Antworten nicht streamen")
	cmd.Flags().BoolVar(&chatNoRender, "no-render", false, "Markdown nicht rendern")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := storage.GetConfig()
	if chatStrategy != "" {
		cfg.Retrieval.Strategy = chatStrategy
	}

	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	session := storage.NewSession(cwd)
	session.AutoSave = cfg.Chat.AutoSave

	out := cmd.OutOrStdout()
	var stream io.Writer
	if cfg.Chat.Stream && !chatNoStream {
		stream = out
	}
	manager, err := a.conversation(session, stream)
	if err != nil {
		return err
	}

	renderer, err := conversation.NewRenderer(100, cfg.Chat.RenderMarkdown && !chatNoRender)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	// Chat lines and confirmation answers share one reader.
	in := bufio.NewReader(cmd.InOrStdin())
	executor := a.executor(session, terminal.NewConfirmer(in, out), manager, out)

	repl := terminal.NewREPL(core.NewEngine(executor, a.logger), manager, session, out, a.logger)
	repl.SetRenderer(renderer)
	repl.SetShowSources(cfg.Chat.ShowSources || chatShowSources)

	if active, err := a.collections.Active(ctx); err == nil {
		fmt.Fprintf(out, "📚 Wissensdatenbank: %s\n", active)
	}
	fmt.Fprintln(out, "💬 Schreib einfach los. /help zeigt Beispiele, exit beendet.")
	fmt.Fprintln(out)

	return repl.Run(ctx, in)
}
