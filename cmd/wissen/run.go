package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/wissen/internal/conversation"
	"github.com/Lin-Jiong-HDU/wissen/internal/core"
	"github.com/Lin-Jiong-HDU/wissen/internal/core/queue"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

// getRunCommand returns the run command
func getRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <eingabe>",
		Short: "Eine Eingabe ausführen, ohne Chat",
		Long: `Führt eine einzelne Eingabe aus, so als wäre sie im Chat getippt.

Aktionen, die eine Bestätigung brauchen, werden nicht ausgeführt, sondern
zur Freigabe eingereiht. Freigeben mit 'wissen tasks'.`,
		Example: `  wissen run "zeige ~/Desktop"
  wissen run "lösche ~/Downloads/alt"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runOnce,
	}
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	utterance := strings.Join(args, " ")

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

	configDir, err := storage.GetConfigDir()
	if err != nil {
		return err
	}
	// The queue file only appears once something is deferred.
	q, err := queue.NewQueue(filepath.Join(configDir, storage.SessionDirName, session.ID, "queue.json"), session.ID)
	if err != nil {
		return fmt.Errorf("failed to open task queue: %w", err)
	}

	manager, err := a.conversation(session, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	executor := a.executor(session, q.Deferrer(utterance, cwd), manager, out)
	command, status := core.NewEngine(executor, a.logger).Process(ctx, utterance)

	if core.Conversational(command) {
		status = strings.TrimSpace(status)
	}
	fmt.Fprintln(out, status)

	if _, ok := command.(router.RagFallback); ok && a.cfg.Chat.ShowSources {
		fmt.Fprintln(out, conversation.FormatSources(manager.LastSources()))
	}
	return nil
}
