package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/logging"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

// logger is set up by the root command before any subcommand runs.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "wissen",
	Short: "Chat-Assistent für deine Dokumente",
	Long: `wissen - ein lokaler Chat-Assistent über deine Dokumente.

Ohne Unterbefehl startet der Chat. Dateien verwalten, Dokumente indexieren
und Fragen stellen geht alles in natürlicher Sprache.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := storage.InitConfig()
		if err != nil {
			return err
		}
		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runChat,
}

func init() {
	addChatFlags(rootCmd)
	rootCmd.AddCommand(
		getChatCommand(),
		getRunCommand(),
		getIngestCommand(),
		getSearchCommand(),
		getCollectionCommand(),
		getHealthCommand(),
		getTasksCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
