package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/organizer"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

const (
	themeSuffix      = "_organisiert"
	knowledgeSuffix  = "_organisiert_wissen"
	shownSuggestions = 5
	similarPreview   = 100
)

func sibling(src, suffix string) string {
	src = filepath.Clean(src)
	return filepath.Join(filepath.Dir(src), filepath.Base(src)+suffix)
}

func (e *Executor) HandleOrganize(ctx context.Context, c router.Organize) string {
	if c.Source.Normalized == "" {
		return describe(missing{"Quell-Verzeichnis"})
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	src := e.resolve(c.Source)
	useKnowledge := router.WantsKnowledge(c.RawQuery)

	dest := ""
	if c.Dest != nil {
		dest = e.resolve(*c.Dest)
	}

	switch {
	case c.Tidy && !useKnowledge:
		if dest == "" {
			dest = DefaultTidyTarget(src)
		}
		return e.tidy(ctx, src, dest, c.DryRun)
	case useKnowledge:
		if dest == "" {
			dest = sibling(src, knowledgeSuffix)
		}
		return e.organizeWithKnowledge(ctx, src, dest, c.DryRun)
	default:
		if dest == "" {
			dest = sibling(src, themeSuffix)
		}
		return e.organizeByThemes(ctx, src, dest, c.DryRun)
	}
}

func (e *Executor) tidy(ctx context.Context, src, dest string, dryRun bool) string {
	plan, err := PlanTidy(src, dest)
	if err != nil {
		return describe(err)
	}

	if dryRun {
		lines := []string{
			"🧹 Aufräumen (Vorschau / Dry-Run):",
			"   📂 Quelle: " + plan.Source,
			"   📂 Ziel:   " + plan.Target,
			fmt.Sprintf("   📄 Top-Level Dateien: %d", plan.Considered),
			fmt.Sprintf("   🔁 Geplante Verschiebungen: %d (Limit: %d)", len(plan.Moves), MaxTidyFiles),
		}
		for _, cat := range plan.Categories() {
			lines = append(lines, fmt.Sprintf("      📁 %s/ (%d Dateien)", cat, len(plan.Groups[cat])))
		}
		lines = append(lines,
			"   ℹ️  "+tidyOnlyTopLevel,
			"   ✅ Zum Ausführen: schreibe z.B. 'räume bitte auf jetzt'")
		if plan.TooMany {
			lines = append(lines, fmt.Sprintf("   ⚠️  Sehr viele Dateien, es werden maximal %d pro Lauf verschoben.", MaxTidyFiles))
		}
		return strings.Join(lines, "\n")
	}

	res := e.apply(ctx, plan.Plan)
	lines := []string{
		"✅ Aufräumen abgeschlossen:",
		"   📂 Quelle: " + plan.Source,
		"   📂 Ziel:   " + plan.Target,
		fmt.Sprintf("   📄 Verschoben: %d", res.moved),
		fmt.Sprintf("   ⏭️  Übersprungen: %d", plan.Considered-res.moved),
		"   ℹ️  " + tidyOnlyTopLevel,
	}
	if res.failed > 0 {
		lines = append(lines, fmt.Sprintf("   ⚠️  %d Dateien konnten nicht verschoben werden", res.failed))
	}
	if plan.TooMany {
		lines = append(lines, fmt.Sprintf("⚠️  Hinweis: Es wurden nur %d Dateien pro Lauf verschoben.", MaxTidyFiles))
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) organizeByThemes(ctx context.Context, src, dest string, dryRun bool) string {
	if e.cfg.Themes == nil {
		return "❌ Themen-Organisation ist nicht verfügbar"
	}

	e.progress("🔄 Analysiere Dokumente nach Themen...")
	plan, err := e.cfg.Themes.Plan(ctx, src, dest)
	if err != nil {
		return describe(external("organisieren", src, err))
	}
	if len(plan.Moves) == 0 {
		return "⚠️ Keine unterstützten Dokumente gefunden in " + src
	}

	organized := len(plan.Moves)
	var res applied
	if !dryRun {
		res = e.apply(ctx, plan)
		organized = res.moved
	}

	lines := []string{
		"✅ Organisation " + modeLabel(dryRun) + ":",
		fmt.Sprintf("   📊 %d Themen gefunden", len(plan.Groups)),
		fmt.Sprintf("   📁 %d Dateien organisiert", organized),
		"   📂 Ziel-Verzeichnis: " + dest,
	}
	if res.failed > 0 {
		lines = append(lines, fmt.Sprintf("   ⚠️  %d Dateien konnten nicht verschoben werden", res.failed))
	}
	if dryRun {
		lines = append(lines, "   ✅ Zum Ausführen: hänge 'jetzt' an (z.B. 'organisiere ... nach themen jetzt')")
	}

	lines = append(lines, "", foldersHeading(dryRun))
	for _, theme := range plan.Categories() {
		lines = append(lines, fmt.Sprintf("   📂 %s/ (%d Dateien)", theme, len(plan.Groups[theme])))
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) organizeWithKnowledge(ctx context.Context, src, dest string, dryRun bool) string {
	if e.cfg.Knowledge == nil {
		return "❌ Wissensbasierte Organisation ist nicht verfügbar"
	}

	e.progress("🧠 Analysiere Dokumente mit indexiertem Wissen...")
	suggestions, err := e.cfg.Knowledge.SuggestStructure(ctx, src)
	if err != nil {
		return describe(external("organisieren", src, err))
	}
	if len(suggestions) == 0 {
		return "⚠️ Keine unterstützten Dokumente gefunden in " + src
	}

	lines := []string{fmt.Sprintf("💡 Vorschläge für %d Dokumente:", len(suggestions))}
	for i, s := range suggestions {
		if i == shownSuggestions {
			lines = append(lines, fmt.Sprintf("   ... und %d weitere", len(suggestions)-shownSuggestions))
			break
		}
		entity := ""
		switch {
		case s.Entities.Customer != "":
			entity = " (Kunde: " + s.Entities.Customer + ")"
		case s.Entities.Project != "":
			entity = " (Projekt: " + s.Entities.Project + ")"
		}
		lines = append(lines, fmt.Sprintf("   %d. %s → %s%s",
			i+1, filepath.Base(s.Path), strings.Join(s.Categories, ", "), entity))
	}

	plan := organizer.PlanSuggestions(src, dest, suggestions)
	organized, folders := len(plan.Moves), len(plan.Groups)
	var res applied
	if !dryRun {
		res = e.apply(ctx, plan)
		organized, folders = res.moved, res.folders
	}

	lines = append(lines, "",
		"✅ Intelligente Organisation "+modeLabel(dryRun)+":",
		fmt.Sprintf("   📊 %d Dokumente analysiert", len(suggestions)),
		fmt.Sprintf("   📁 %d Dateien organisiert", organized),
		fmt.Sprintf("   📂 %d Ordner erstellt", folders),
		"   📂 Ziel-Verzeichnis: "+dest,
	)
	if res.failed > 0 {
		lines = append(lines, fmt.Sprintf("   ⚠️  %d Dateien konnten nicht verschoben werden", res.failed))
	}
	if dryRun {
		lines = append(lines, "   ✅ Zum Ausführen: hänge 'jetzt' an (z.B. 'organisiere ... mit wissen jetzt')")
	}

	lines = append(lines, "", structureHeading(dryRun))
	top := ""
	for _, folder := range plan.Categories() {
		category, sub, _ := strings.Cut(folder, "/")
		if category != top {
			lines = append(lines, fmt.Sprintf("   📂 %s/", category))
			top = category
		}
		lines = append(lines, fmt.Sprintf("      📁 %s/ (%d Dateien)", sub, len(plan.Groups[folder])))
	}
	return strings.Join(lines, "\n")
}

func modeLabel(dryRun bool) string {
	if dryRun {
		return "(Vorschau)"
	}
	return "abgeschlossen"
}

func foldersHeading(dryRun bool) string {
	if dryRun {
		return "📂 Geplante Ordner:"
	}
	return "📂 Erstellte Ordner:"
}

func structureHeading(dryRun bool) string {
	if dryRun {
		return "📂 Geplante Struktur:"
	}
	return "📂 Erstellte Struktur:"
}

type applied struct {
	moved   int
	failed  int
	folders int
}

// apply carries out plan file by file. A failed move is logged and
// counted; earlier moves are not undone.
func (e *Executor) apply(ctx context.Context, plan *organizer.Plan) applied {
	var res applied
	created := make(map[string]bool)

	for _, m := range plan.Moves {
		if ctx.Err() != nil {
			res.failed += len(plan.Moves) - res.moved - res.failed
			break
		}

		folder := filepath.Join(plan.Target, filepath.FromSlash(m.Category))
		if !created[folder] {
			if err := e.cfg.FS.CreateDir(folder); err != nil {
				e.logger.Warn("Failed to create folder", zap.String("folder", folder), zap.Error(err))
				res.failed++
				continue
			}
			created[folder] = true
		}

		dst := FreeName(folder, filepath.Base(m.From))
		if err := e.cfg.FS.Move(m.From, dst); err != nil {
			e.logger.Warn("Failed to move file", zap.String("from", m.From), zap.String("to", dst), zap.Error(err))
			res.failed++
			continue
		}
		res.moved++
	}

	res.folders = len(created)
	e.logger.Info("Plan applied",
		zap.String("source", plan.Source),
		zap.String("target", plan.Target),
		zap.Int("moved", res.moved),
		zap.Int("failed", res.failed))
	return res
}

func (e *Executor) HandleFindSimilar(ctx context.Context, c router.FindSimilar) string {
	if c.Path.Normalized == "" {
		return describe(missing{"Datei-Pfad"})
	}
	if e.cfg.Knowledge == nil {
		return "❌ Ähnlichkeitssuche ist nicht verfügbar"
	}
	if msg, ok := e.guard(ctx, c); !ok {
		return msg
	}

	path := e.resolve(c.Path)
	e.progress("🔍 Suche ähnliche Dokumente...")
	similar, err := e.cfg.Knowledge.FindSimilar(ctx, path, organizer.DefaultSimilarTopK, organizer.DefaultSimilarScore)
	if err != nil {
		return describe(external("ähnliche dokumente", path, err))
	}
	if len(similar) == 0 {
		return fmt.Sprintf("⚠️ Keine ähnlichen Dokumente zu %s gefunden", path)
	}

	lines := []string{fmt.Sprintf("🔍 Ähnliche Dokumente zu %s:", filepath.Base(path)), ""}
	for i, s := range similar {
		preview := strings.Join(strings.Fields(s.Preview), " ")
		if r := []rune(preview); len(r) > similarPreview {
			preview = string(r[:similarPreview]) + "..."
		}
		lines = append(lines,
			fmt.Sprintf("%d. %s (Score: %.3f)", i+1, s.Path, s.Score),
			"   "+preview)
	}
	return strings.Join(lines, "\n")
}
