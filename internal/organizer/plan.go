// Package organizer proposes folder structures for a directory of
// documents. Plans are applied by the caller.
package organizer

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
)

// Move puts one file into a category folder below the plan target.
// Category may contain slashes for nested folders.
type Move struct {
	From     string
	Category string
}

// Plan is a proposed reorganisation of Source into Target.
type Plan struct {
	Source string
	Target string
	Moves  []Move
	// Groups maps each category to the base names of its files.
	Groups map[string][]string
}

func newPlan(source, target string) *Plan {
	return &Plan{Source: source, Target: target, Groups: make(map[string][]string)}
}

func (p *Plan) add(from, category string) {
	p.Moves = append(p.Moves, Move{From: from, Category: category})
	p.Groups[category] = append(p.Groups[category], filepath.Base(from))
}

// Categories returns the category names in lexical order.
func (p *Plan) Categories() []string {
	out := make([]string, 0, len(p.Groups))
	for c := range p.Groups {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Searcher is the retrieval the knowledge organizer consults.
type Searcher interface {
	SearchWith(ctx context.Context, strategy knowledge.Strategy, query string, topK int) ([]knowledge.Result, error)
}

var (
	invalidFolderRe = regexp.MustCompile(`[<>:"/\\|?*]`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// SanitizeFolderName makes name safe as a single path segment.
func SanitizeFolderName(name string) string {
	name = invalidFolderRe.ReplaceAllString(name, "-")
	name = spaceRunRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "-_. ")
	if r := []rune(name); len(r) > 50 {
		name = string(r[:50])
	}
	if name == "" {
		return "Unbenannt"
	}
	return name
}

func prefixRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
