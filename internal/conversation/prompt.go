package conversation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PromptLoader reads system prompts from <dir>/<mode>.md.
type PromptLoader struct {
	promptsDir string
}

func NewPromptLoader(promptsDir string) *PromptLoader {
	return &PromptLoader{
		promptsDir: promptsDir,
	}
}

// PromptTemplate is a parsed prompt file. The optional frontmatter
// between two "---" lines carries name, title and description.
type PromptTemplate struct {
	Name         string
	Title        string
	Description  string
	SystemPrompt string
}

// Load reads and parses one prompt file.
func (l *PromptLoader) Load(name string) (*PromptTemplate, error) {
	content, err := os.ReadFile(filepath.Join(l.promptsDir, name+".md"))
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt: %w", err)
	}
	tpl := l.Parse(string(content))
	if tpl.Name == "" {
		tpl.Name = name
	}
	return tpl, nil
}

// SystemPrompt returns the prompt for mode, or the built-in one when the
// file is missing or empty.
func (l *PromptLoader) SystemPrompt(mode Mode) string {
	if l != nil {
		if tpl, err := l.Load(string(mode)); err == nil && tpl.SystemPrompt != "" {
			return tpl.SystemPrompt
		}
	}
	return l.Parse(defaultPrompts[mode]).SystemPrompt
}

// Parse splits frontmatter from the prompt body.
func (l *PromptLoader) Parse(content string) *PromptTemplate {
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 || strings.TrimSpace(parts[0]) != "" {
		return &PromptTemplate{SystemPrompt: strings.TrimSpace(content)}
	}

	tpl := &PromptTemplate{SystemPrompt: strings.TrimSpace(parts[2])}
	for _, line := range strings.Split(parts[1], "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.TrimSpace(key) {
		case "name":
			tpl.Name = value
		case "title":
			tpl.Title = value
		case "description":
			tpl.Description = value
		}
	}
	return tpl
}
