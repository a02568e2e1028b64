package organizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
	"github.com/Lin-Jiong-HDU/wissen/internal/ingestion"
)

const (
	DefaultThemeSimilarity = 0.7
	themeSampleRunes       = 5000
	themeEmbedBatch        = 32
)

// ThemeOrganizer groups documents whose embeddings are similar and names
// each group after its most frequent word.
type ThemeOrganizer struct {
	embedder  ai.Embedder
	threshold float64
	logger    *zap.Logger
}

func NewThemeOrganizer(embedder ai.Embedder, threshold float64, logger *zap.Logger) *ThemeOrganizer {
	if threshold <= 0 {
		threshold = DefaultThemeSimilarity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThemeOrganizer{embedder: embedder, threshold: threshold, logger: logger}
}

type document struct {
	path string
	text string
}

// Plan groups the supported top-level documents of src into theme
// folders below dest.
func (o *ThemeOrganizer) Plan(ctx context.Context, src, dest string) (*Plan, error) {
	docs, err := loadDocuments(src, false, themeSampleRunes, o.logger)
	if err != nil {
		return nil, err
	}

	plan := newPlan(src, dest)
	if len(docs) == 0 {
		return plan, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.text
	}
	vecs, err := o.embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	used := make([]bool, len(docs))
	group := 0
	for i := range docs {
		if used[i] {
			continue
		}
		used[i] = true
		members := []int{i}
		for j := i + 1; j < len(docs); j++ {
			if !used[j] && ai.Cosine(vecs[i], vecs[j]) >= o.threshold {
				used[j] = true
				members = append(members, j)
			}
		}

		group++
		name := ThemeName(docs[i].text)
		if name == "" {
			name = fmt.Sprintf("Thema_%d", group)
		}
		for _, m := range members {
			plan.add(docs[m].path, name)
		}
	}

	o.logger.Info("Theme plan built",
		zap.String("source", src),
		zap.Int("documents", len(docs)),
		zap.Int("themes", len(plan.Groups)))
	return plan, nil
}

func (o *ThemeOrganizer) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if o.embedder == nil {
		return nil, fmt.Errorf("theme organizer: no embedder configured")
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += themeEmbedBatch {
		end := min(start+themeEmbedBatch, len(texts))
		vecs, err := o.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed documents: %w", err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed documents: got %d vectors for %d texts", len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

var (
	markupRe    = regexp.MustCompile(`<[^>]+>|[#*` + "`" + `]`)
	themeWordRe = regexp.MustCompile(`\p{L}{4,}`)

	themeStopwords = map[string]bool{
		"dass": true, "dies": true, "diese": true, "dieser": true, "dieses": true, "diesen": true,
		"eine": true, "einer": true, "einem": true, "einen": true, "eines": true, "eins": true,
		"oder": true, "aber": true, "auch": true, "sich": true, "sind": true, "nicht": true,
		"werden": true, "wird": true, "wurde": true, "wurden": true,
		"haben": true, "hatte": true, "hatten": true,
		"sein": true, "seine": true, "seiner": true, "seinem": true, "seinen": true, "seines": true,
		"kann": true, "können": true, "könnte": true, "könnten": true,
		"soll": true, "sollen": true, "sollte": true, "sollten": true,
		"für": true, "über": true, "unter": true, "durch": true, "nach": true, "wenn": true,
		"with": true, "that": true, "this": true, "from": true, "have": true,
	}
)

// ThemeName returns the most frequent non-stopword of four or more
// letters in title case, or "" when there is none. Ties go to the word
// seen first.
func ThemeName(content string) string {
	text := strings.ToLower(markupRe.ReplaceAllString(content, " "))

	counts := make(map[string]int)
	var order []string
	for _, w := range themeWordRe.FindAllString(text, -1) {
		if themeStopwords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	best := ""
	for _, w := range order {
		if counts[w] > counts[best] {
			best = w
		}
	}
	if best == "" {
		return ""
	}
	return SanitizeFolderName(cases.Title(language.German).String(best))
}

// loadDocuments reads the supported files of dir, truncated to sample
// runes. Unreadable files are skipped.
func loadDocuments(dir string, recursive bool, sample int, logger *zap.Logger) ([]document, error) {
	files, err := ingestion.DiscoverFiles(dir, recursive)
	if err != nil {
		return nil, err
	}

	docs := make([]document, 0, len(files))
	for _, f := range files {
		text, err := ingestion.Load(f)
		if err != nil {
			logger.Warn("Skipping unreadable document", zap.String("path", f), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, document{path: f, text: prefixRunes(text, sample)})
	}
	return docs, nil
}
