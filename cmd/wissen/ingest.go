package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/wissen/internal/fsops"
	"github.com/Lin-Jiong-HDU/wissen/internal/ingestion"
)

var (
	ingestDir       string
	ingestFile      string
	ingestRecursive bool
)

func getIngestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Dokumente in die aktive Wissensdatenbank laden",
		Example: `  wissen ingest --dir ~/Dokumente -r
  wissen ingest --file ~/Desktop/angebot.md`,
		Args: cobra.NoArgs,
		RunE: runIngest,
	}
	cmd.Flags().StringVar(&ingestDir, "dir", "", "Verzeichnis")
	cmd.Flags().StringVar(&ingestFile, "file", "", "einzelne Datei")
	cmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", false, "Unterverzeichnisse einbeziehen")
	cmd.MarkFlagsOneRequired("dir", "file")
	cmd.MarkFlagsMutuallyExclusive("dir", "file")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	active, err := a.collections.Active(ctx)
	if err != nil {
		return err
	}

	var stats ingestion.Stats
	if ingestFile != "" {
		path := absolute(ingestFile)
		fmt.Fprintf(out, "📥 Indexiere %s in '%s'...\n", path, active)
		stats, err = a.pipeline.IngestFile(ctx, path)
	} else {
		dir := absolute(ingestDir)
		fmt.Fprintf(out, "📥 Indexiere %s in '%s'...\n", dir, active)
		stats, err = a.pipeline.IngestDirectory(ctx, dir, ingestRecursive)
	}
	if err != nil {
		if errors.Is(err, ingestion.ErrUnsupported) {
			return fmt.Errorf("%w (supported: %s)", err, ingestion.SupportedFormats())
		}
		return err
	}

	printStats(out, stats)
	return nil
}

func printStats(out io.Writer, stats ingestion.Stats) {
	if stats.Chunks == 0 && stats.Files == 0 {
		fmt.Fprintf(out, "⚠️ Keine unterstützten Dokumente gefunden (%s)\n", ingestion.SupportedFormats())
		return
	}
	fmt.Fprintf(out, "✅ %d Chunks aus %d Dateien gespeichert\n", stats.Chunks, stats.Files)
	if stats.FailedFiles > 0 {
		fmt.Fprintf(out, "⚠️ %d Dateien fehlgeschlagen\n", stats.FailedFiles)
	}
	if stats.FailedChunks > 0 {
		fmt.Fprintf(out, "⚠️ %d Chunks ohne Embedding\n", stats.FailedChunks)
	}
}

// absolute expands ~ and resolves p against the process directory.
func absolute(p string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Clean(fsops.ExpandHome(p))
	}
	return fsops.Resolve(cwd, p)
}
