package core

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lin-Jiong-HDU/wissen/internal/fsops"
	"github.com/Lin-Jiong-HDU/wissen/internal/organizer"
)

const (
	// MaxTidyFiles caps the files one tidy run moves.
	MaxTidyFiles = 250

	tidySuffix       = "_aufgeraeumt"
	tidyOtherFolder  = "Sonstiges"
	tidyOnlyTopLevel = "Nur Top-Level Dateien; Unterordner bleiben unangetastet."
)

// Checked in order; an extension belongs to the first category listing it.
var tidyCategories = []struct {
	name string
	exts []string
}{
	{"Dokumente", []string{".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx", ".md", ".txt", ".rtf"}},
	{"Bilder", []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".tiff", ".bmp"}},
	{"Archive", []string{".zip", ".rar", ".7z", ".tar", ".gz"}},
	{"Code", []string{".py", ".js", ".ts", ".tsx", ".jsx", ".json", ".yaml", ".yml", ".toml", ".ini", ".sh"}},
	{"AudioVideo", []string{".mp3", ".wav", ".m4a", ".mp4", ".mov", ".mkv"}},
}

// TidyCategory returns the folder a file with this name is sorted into.
func TidyCategory(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return tidyOtherFolder
	}
	for _, c := range tidyCategories {
		for _, e := range c.exts {
			if e == ext {
				return c.name
			}
		}
	}
	return tidyOtherFolder
}

// TidyPlan is the quick, extension-based reorganisation of one directory.
type TidyPlan struct {
	*organizer.Plan
	// Considered counts every top-level regular file, including those
	// beyond the cap.
	Considered int
	TooMany    bool
}

// DefaultTidyTarget is the sibling directory a tidy run moves into.
func DefaultTidyTarget(src string) string {
	src = filepath.Clean(src)
	return filepath.Join(filepath.Dir(src), filepath.Base(src)+tidySuffix)
}

// PlanTidy sorts the visible top-level regular files of src by extension.
// Subdirectories and symlinks stay where they are. At most MaxTidyFiles
// files are planned.
func PlanTidy(src, dst string) (*TidyPlan, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, external("aufräumen", src, mapNotExist(err))
	}
	if !info.IsDir() {
		return nil, external("aufräumen", src, fsops.ErrNotDirectory)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, external("aufräumen", src, err)
	}

	plan := &TidyPlan{Plan: &organizer.Plan{Source: src, Target: dst, Groups: map[string][]string{}}}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || !e.Type().IsRegular() {
			continue
		}
		plan.Considered++
		if len(plan.Moves) >= MaxTidyFiles {
			continue
		}
		category := TidyCategory(e.Name())
		plan.Moves = append(plan.Moves, organizer.Move{From: filepath.Join(src, e.Name()), Category: category})
		plan.Groups[category] = append(plan.Groups[category], e.Name())
	}
	plan.TooMany = plan.Considered > MaxTidyFiles
	return plan, nil
}

func mapNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fsops.ErrNotFound
	}
	return err
}
