package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/ingestion"
	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
)

const (
	suggestSampleRunes = 2000
	suggestTopK        = 5

	// FallbackCategory holds documents no keyword matched.
	FallbackCategory = "Diverses"
	uncategorized    = "Unkategorisiert"
)

type category struct {
	name     string
	keywords []string
}

var categories = []category{
	{"Kunden", []string{"kunde", "customer", "client", "auftraggeber"}},
	{"Projekte", []string{"projekt", "project", "auftrag"}},
	{"Verträge", []string{"vertrag", "contract", "vereinbarung", "agreement"}},
	{"Rechnungen", []string{"rechnung", "invoice", "bill", "zahlung"}},
	{"Angebote", []string{"angebot", "offer", "quote", "kostenvoranschlag"}},
	{"Mitarbeiter", []string{"mitarbeiter", "employee", "personal", "team"}},
	{"Marketing", []string{"marketing", "werbung", "kampagne", "campaign"}},
}

// Entity names are runs of capitalised words after the keyword.
const entityName = `(\p{Lu}[\p{L}\p{N}]*(?:[ \t]+\p{Lu}[\p{L}\p{N}]*)*)`

var (
	customerRe = regexp.MustCompile(`(?i:\b(?:kunde|customer|auftraggeber))[ \t]*:?[ \t]*` + entityName)
	projectRe  = regexp.MustCompile(`(?i:\b(?:projekt|project))[ \t]*:?[ \t]*` + entityName)
)

// Entities are names found in a document.
type Entities struct {
	Customer string
	Project  string
}

// ExtractEntities finds the first customer and project name in text.
func ExtractEntities(text string) Entities {
	var e Entities
	if m := customerRe.FindStringSubmatch(text); m != nil {
		e.Customer = strings.TrimSpace(m[1])
	}
	if m := projectRe.FindStringSubmatch(text); m != nil {
		e.Project = strings.TrimSpace(m[1])
	}
	return e
}

// Suggestion is the proposed place for one document.
type Suggestion struct {
	Path       string
	Categories []string
	Entities   Entities
	Similar    []knowledge.Result
}

// Folder is the category path the document belongs in.
func (s Suggestion) Folder() string {
	parts := []string{s.Categories[0]}
	switch {
	case s.Entities.Customer != "":
		parts = append(parts, SanitizeFolderName(s.Entities.Customer))
		if t := documentType(filepath.Base(s.Path), s.Categories); t != "" {
			parts = append(parts, t)
		}
	case s.Entities.Project != "":
		parts = append(parts, SanitizeFolderName(s.Entities.Project))
	default:
		parts = append(parts, uncategorized)
	}
	return strings.Join(parts, "/")
}

// KnowledgeOrganizer sorts documents by what the indexed knowledge says
// about similar content.
type KnowledgeOrganizer struct {
	searcher Searcher
	logger   *zap.Logger
}

func NewKnowledgeOrganizer(searcher Searcher, logger *zap.Logger) *KnowledgeOrganizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeOrganizer{searcher: searcher, logger: logger}
}

// SuggestStructure proposes a folder for every supported document below
// dir.
func (o *KnowledgeOrganizer) SuggestStructure(ctx context.Context, dir string) ([]Suggestion, error) {
	docs, err := loadDocuments(dir, true, suggestSampleRunes, o.logger)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := Suggestion{Path: d.path, Entities: ExtractEntities(d.text)}

		results, err := o.searcher.SearchWith(ctx, knowledge.StrategyHybrid, d.text, suggestTopK)
		if err != nil {
			o.logger.Warn("Knowledge search failed", zap.String("path", d.path), zap.Error(err))
		}
		s.Categories = matchCategories(results)
		if len(s.Categories) == 0 {
			s.Categories = []string{FallbackCategory}
		}
		if len(results) > 3 {
			results = results[:3]
		}
		s.Similar = results
		out = append(out, s)
	}
	return out, nil
}

// Plan turns the suggestions for src into moves below dest.
func (o *KnowledgeOrganizer) Plan(ctx context.Context, src, dest string) (*Plan, error) {
	suggestions, err := o.SuggestStructure(ctx, src)
	if err != nil {
		return nil, err
	}
	return PlanSuggestions(src, dest, suggestions), nil
}

// PlanSuggestions builds the plan for suggestions already computed by
// SuggestStructure.
func PlanSuggestions(src, dest string, suggestions []Suggestion) *Plan {
	plan := newPlan(src, dest)
	for _, s := range suggestions {
		plan.add(s.Path, s.Folder())
	}
	return plan
}

func matchCategories(results []knowledge.Result) []string {
	var found []string
	seen := make(map[string]bool)
	for _, r := range results {
		content := strings.ToLower(r.Content)
		source := strings.ToLower(r.Source)
		for _, c := range categories {
			if seen[c.name] {
				continue
			}
			for _, kw := range c.keywords {
				if strings.Contains(content, kw) || strings.Contains(source, kw) {
					seen[c.name] = true
					found = append(found, c.name)
					break
				}
			}
		}
	}
	return found
}

func documentType(filename string, cats []string) string {
	for _, c := range cats {
		switch c {
		case "Verträge", "Rechnungen", "Angebote":
			return c
		}
	}
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "vertrag") || strings.Contains(name, "contract"):
		return "Verträge"
	case strings.Contains(name, "rechnung") || strings.Contains(name, "invoice"):
		return "Rechnungen"
	case strings.Contains(name, "angebot") || strings.Contains(name, "offer"):
		return "Angebote"
	}
	return ""
}

const (
	similarSampleRunes  = 1000
	similarPreviewRunes = 200
	DefaultSimilarTopK  = 5
	DefaultSimilarScore = 0.6
)

// Similar is an indexed document that resembles a reference file.
type Similar struct {
	Path    string
	Score   float64
	Preview string
}

// FindSimilar returns up to topK indexed documents whose best chunk
// scores at least minScore against the start of path. The file itself is
// excluded.
func (o *KnowledgeOrganizer) FindSimilar(ctx context.Context, path string, topK int, minScore float64) ([]Similar, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("reference file: %w", err)
	}

	text, err := ingestion.Load(abs)
	if err != nil {
		return nil, err
	}
	query := prefixRunes(text, similarSampleRunes)
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("reference file %s has no text", abs)
	}

	results, err := o.searcher.SearchWith(ctx, knowledge.StrategySemantic, query, topK*4)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		o.logger.Debug("Semantic search unavailable, using full-text", zap.Error(err))
		results, err = o.searcher.SearchWith(ctx, knowledge.StrategyFullText, query, topK*4)
		if err != nil {
			return nil, err
		}
	}

	var out []Similar
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Score < minScore || r.Source == abs || seen[r.Source] {
			continue
		}
		seen[r.Source] = true
		out = append(out, Similar{Path: r.Source, Score: r.Score, Preview: prefixRunes(r.Content, similarPreviewRunes)})
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}
