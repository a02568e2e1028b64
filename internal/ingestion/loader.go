// Package ingestion loads documents, splits them into chunks and stores
// their embeddings.
package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnsupported is returned for file types the loader cannot read.
var ErrUnsupported = errors.New("unsupported file type")

var loaders = map[string]func([]byte) (string, error){
	".txt":      loadText,
	".md":       loadText,
	".markdown": loadText,
	".html":     loadHTML,
	".htm":      loadHTML,
}

// Supported reports whether path has a loadable extension.
func Supported(path string) bool {
	_, ok := loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SupportedFormats lists the loadable formats for user messages, e.g.
// "HTML, MD, TXT".
func SupportedFormats() string {
	seen := make(map[string]bool)
	var out []string
	for ext := range loaders {
		name := strings.ToUpper(strings.TrimPrefix(ext, "."))
		switch name {
		case "HTM":
			name = "HTML"
		case "MARKDOWN":
			name = "MD"
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

// Load reads a document and returns its plain text.
func Load(path string) (string, error) {
	load, ok := loaders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return load(data)
}

func loadText(data []byte) (string, error) {
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

var blankLinesRe = regexp.MustCompile(`\n\s*\n+`)

func loadHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	lines := strings.Split(body.Text(), "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	text := blankLinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text), nil
}
