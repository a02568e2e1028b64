package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Lin-Jiong-HDU/wissen/internal/conversation"
	"github.com/Lin-Jiong-HDU/wissen/internal/ingestion"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

const unavailableCollections = "❌ Wissensdatenbank ist nicht verfügbar"

func (e *Executor) HandleCollectionCreate(ctx context.Context, c router.CollectionCreate) string {
	if c.Name == "" {
		return describe(missing{"Collection-Name"})
	}
	if e.cfg.Collections == nil {
		return unavailableCollections
	}

	created, err := e.cfg.Collections.Create(ctx, c.Name, e.cfg.VectorSize)
	if err != nil {
		return describe(external("wissensdatenbank erstellen", "", err))
	}
	if !created {
		return fmt.Sprintf("⚠️ Wissensdatenbank '%s' existiert bereits", c.Name)
	}
	return fmt.Sprintf("✅ Wissensdatenbank '%s' wurde erstellt", c.Name)
}

func (e *Executor) HandleCollectionDelete(ctx context.Context, c router.CollectionDelete) string {
	if c.Name == "" {
		return describe(missing{"Collection-Name"})
	}
	if e.cfg.Collections == nil {
		return unavailableCollections
	}

	if err := e.cfg.Collections.Delete(ctx, c.Name, false); err != nil {
		return describe(external("wissensdatenbank löschen", "", err))
	}
	return fmt.Sprintf("✅ Wissensdatenbank '%s' wurde gelöscht", c.Name)
}

func (e *Executor) HandleCollectionSwitch(ctx context.Context, c router.CollectionSwitch) string {
	if c.Name == "" {
		return describe(missing{"Collection-Name"})
	}
	if e.cfg.Collections == nil {
		return unavailableCollections
	}

	if err := e.cfg.Collections.Switch(ctx, c.Name); err != nil {
		return describe(external("wissensdatenbank wechseln", "", err))
	}
	return fmt.Sprintf("✅ Verwende jetzt Wissensdatenbank '%s'", c.Name)
}

func (e *Executor) HandleCollectionInfo(ctx context.Context, c router.CollectionInfo) string {
	if e.cfg.Collections == nil {
		return unavailableCollections
	}

	info, err := e.cfg.Collections.Info(ctx, c.Name)
	if err != nil {
		return describe(external("wissensdatenbank info", "", err))
	}

	lines := []string{
		fmt.Sprintf("📊 Informationen zu '%s':", info.Name),
		"",
		fmt.Sprintf("  Chunks: %d", info.Chunks),
		fmt.Sprintf("  Dokumente: %d", info.Documents),
	}
	if info.VectorSize > 0 {
		lines = append(lines, fmt.Sprintf("  Vector-Dimension: %d", info.VectorSize))
	}
	if !info.CreatedAt.IsZero() {
		lines = append(lines, "  Erstellt: "+info.CreatedAt.Local().Format("02.01.2006 15:04"))
	}
	if info.Active {
		lines = append(lines, "  Aktiv: ja")
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) HandleCollectionList(ctx context.Context, _ router.CollectionList) string {
	if e.cfg.Collections == nil {
		return unavailableCollections
	}

	infos, err := e.cfg.Collections.List(ctx)
	if err != nil {
		return describe(external("wissensdatenbanken auflisten", "", err))
	}
	if len(infos) == 0 {
		return "Keine Wissensdatenbanken gefunden."
	}

	lines := []string{"📚 Verfügbare Wissensdatenbanken:", ""}
	for _, info := range infos {
		marker := "   "
		if info.Active {
			marker = "👉 "
		}
		lines = append(lines, fmt.Sprintf("%s%s (%d Chunks, %d Dokumente)", marker, info.Name, info.Chunks, info.Documents))
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) HandleIndex(ctx context.Context, c router.Index) string {
	if c.Path.Normalized == "" {
		return describe(ErrPathNotRecognized)
	}
	if e.cfg.Indexer == nil {
		return "❌ Indexierung ist nicht verfügbar"
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	path := e.resolve(c.Path)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "❌ Pfad nicht gefunden: " + path
	}
	if err != nil {
		return describe(external("indexieren", path, err))
	}

	var stats ingestion.Stats
	if info.IsDir() {
		mode := "nur oberste Ebene"
		if c.Recursive {
			mode = "rekursiv"
		}
		e.progress("📁 Indexiere Verzeichnis (%s): %s", mode, path)
		stats, err = e.cfg.Indexer.IngestDirectory(ctx, path, c.Recursive)
	} else {
		e.progress("📄 Indexiere Datei: %s", path)
		stats, err = e.cfg.Indexer.IngestFile(ctx, path)
	}
	if err != nil {
		if errors.Is(err, ingestion.ErrUnsupported) {
			return describe(external("indexieren", path, err))
		}
		return "❌ Indexierung fehlgeschlagen: " + err.Error()
	}
	return formatStats(stats)
}

func formatStats(s ingestion.Stats) string {
	if s.Chunks == 0 && s.FailedChunks == 0 && s.FailedFiles == 0 {
		return "⚠️ Keine unterstützten Dokumente gefunden.\nUnterstützte Formate: " + ingestion.SupportedFormats()
	}

	lines := []string{fmt.Sprintf("✅ Indexierung abgeschlossen: %d Chunks aus %d Dateien verarbeitet", s.Chunks, s.Files)}
	if s.FailedChunks > 0 {
		lines = append(lines, fmt.Sprintf("⚠️ %d Chunks fehlgeschlagen", s.FailedChunks))
	}
	if s.FailedFiles > 0 {
		lines = append(lines, fmt.Sprintf("⚠️ %d Dateien konnten nicht verarbeitet werden", s.FailedFiles))
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) HandleGreeting(ctx context.Context, c router.Greeting) string {
	return e.answer(ctx, conversation.ModeGreeting, c.Text)
}

func (e *Executor) HandleMetaQuestion(ctx context.Context, c router.MetaQuestion) string {
	return e.answer(ctx, conversation.ModeMeta, c.Text)
}

func (e *Executor) HandleRagFallback(ctx context.Context, c router.RagFallback) string {
	return e.answer(ctx, conversation.ModeRAG, c.Text)
}

func (e *Executor) answer(ctx context.Context, mode conversation.Mode, text string) string {
	if e.cfg.Answerer == nil {
		return "❌ Kein Sprachmodell konfiguriert"
	}
	answer, err := e.cfg.Answerer.Answer(ctx, mode, text)
	if err != nil {
		return describe(external("antworten", "", err))
	}
	return answer
}
