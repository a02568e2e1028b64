package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Lin-Jiong-HDU/wissen/internal/core/queue"
)

// maxSummaryWidth is used before the terminal size is known.
const maxSummaryWidth = 70

// Renderer handles TUI rendering
type Renderer struct {
	width  int
	height int
	style  *StyleConfig
}

// StyleConfig defines visual styles
type StyleConfig struct {
	TitleColor    lipgloss.Color
	SubtleColor   lipgloss.Color
	ErrorColor    lipgloss.Color
	SuccessColor  lipgloss.Color
	WarningColor  lipgloss.Color
	SelectedColor lipgloss.Color
	BorderColor   lipgloss.Color
}

// DefaultStyleConfig returns the default style configuration
func DefaultStyleConfig() *StyleConfig {
	return &StyleConfig{
		TitleColor:    lipgloss.Color("10"),  // Green
		SubtleColor:   lipgloss.Color("241"), // Grey
		ErrorColor:    lipgloss.Color("9"),   // Red
		SuccessColor:  lipgloss.Color("10"),  // Green
		WarningColor:  lipgloss.Color("11"),  // Yellow
		SelectedColor: lipgloss.Color("12"),  // Blue
		BorderColor:   lipgloss.Color("8"),   // Dark grey
	}
}

// NewRenderer creates a new TUI renderer
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		width:  width,
		height: height,
		style:  DefaultStyleConfig(),
	}
}

// Render renders the full TUI view. The footer sticks to the bottom once
// the window height is known.
func (r *Renderer) Render(mdl *model) string {
	header := r.renderHeader()
	body := r.renderTasks(mdl)
	footer := r.renderFooter(mdl)

	if r.height > 0 {
		used := lipgloss.Height(header) + lipgloss.Height(body) + lipgloss.Height(footer)
		if pad := r.height - used; pad > 0 {
			body += strings.Repeat("\n", pad)
		}
	}
	return header + "\n" + body + "\n" + footer
}

// RenderHelp renders the key binding overview.
func (r *Renderer) RenderHelp(keys keyMap) string {
	title := lipgloss.NewStyle().Foreground(r.style.TitleColor).Bold(true).Render("Tastenbelegung")
	body := lipgloss.NewStyle().Foreground(r.style.SubtleColor).Render(keys.Help().String())
	return title + "\n\n" + body + "\n"
}

func (r *Renderer) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(r.style.TitleColor).
		Bold(true).
		Render("wissen Freigaben")

	width := r.width
	if width <= 0 {
		width = 62
	}
	border := lipgloss.NewStyle().
		Foreground(r.style.BorderColor).
		Render(strings.Repeat("─", width))

	return title + "\n" + border
}

func (r *Renderer) renderTasks(mdl *model) string {
	sessions, grouped := groupBySession(mdl.tasks)
	if len(sessions) == 0 {
		return r.renderEmptyState()
	}

	var b strings.Builder
	for _, sessionID := range sessions {
		b.WriteString(r.renderSessionHeader(sessionID))
		for _, i := range grouped[sessionID] {
			b.WriteString(r.renderTask(mdl.tasks[i], i == mdl.cursor))
		}
	}
	return b.String()
}

// groupBySession returns session IDs in order of their first task and the
// task indices per session. Finished tasks stay visible so the result of
// an approval can be read.
func groupBySession(tasks []*queue.Task) ([]string, map[string][]int) {
	grouped := make(map[string][]int)
	var sessions []string
	for i, task := range tasks {
		if _, seen := grouped[task.SessionID]; !seen {
			sessions = append(sessions, task.SessionID)
		}
		grouped[task.SessionID] = append(grouped[task.SessionID], i)
	}
	return sessions, grouped
}

func (r *Renderer) renderEmptyState() string {
	return lipgloss.NewStyle().
		Foreground(r.style.SubtleColor).
		Render("\n  Keine Aufgaben warten auf Freigabe\n")
}

func (r *Renderer) renderSessionHeader(sessionID string) string {
	style := lipgloss.NewStyle().
		Foreground(r.style.SelectedColor).
		Bold(true)

	return fmt.Sprintf("\n  %s\n", style.Render("Sitzung: "+sessionID))
}

func (r *Renderer) renderTask(task *queue.Task, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %s [%s] %s\n", cursor, r.renderStatus(task.Status), r.renderSummary(task))

	subtle := lipgloss.NewStyle().Foreground(r.style.SubtleColor)
	b.WriteString(subtle.Render(fmt.Sprintf("       %s  in %s", task.ShortID(), task.Cwd)) + "\n")

	if task.CheckResult != nil && task.CheckResult.Warning != "" {
		b.WriteString(lipgloss.NewStyle().
			Foreground(r.style.WarningColor).
			Render("       Warnung: "+task.CheckResult.Warning) + "\n")
	}

	if task.Result != nil {
		color := r.style.SuccessColor
		text := task.Result.Status
		if task.Result.Failed() {
			color = r.style.ErrorColor
			if task.Result.Error != "" {
				text = task.Result.Error
			}
		}
		first, _, _ := strings.Cut(text, "\n")
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render("       "+first) + "\n")
	}

	return b.String()
}

func (r *Renderer) renderStatus(status queue.TaskStatus) string {
	var symbol string
	var color lipgloss.Color

	switch status {
	case queue.TaskStatusPending:
		symbol = " "
		color = r.style.SubtleColor
	case queue.TaskStatusApproved:
		symbol = "✓"
		color = r.style.SuccessColor
	case queue.TaskStatusRejected:
		symbol = "✗"
		color = r.style.ErrorColor
	case queue.TaskStatusExecuting:
		symbol = "⋯"
		color = r.style.WarningColor
	case queue.TaskStatusCompleted:
		symbol = "✓"
		color = r.style.SuccessColor
	case queue.TaskStatusFailed:
		symbol = "!"
		color = r.style.ErrorColor
	default:
		symbol = "?"
		color = r.style.SubtleColor
	}

	return lipgloss.NewStyle().Foreground(color).Render(symbol)
}

func (r *Renderer) renderSummary(task *queue.Task) string {
	limit := maxSummaryWidth
	if r.width > 20 {
		limit = r.width - 12
	}
	summary := []rune(task.Summary)
	if len(summary) > limit {
		summary = append(summary[:limit-3], []rune("...")...)
	}

	return lipgloss.NewStyle().
		Foreground(r.style.TitleColor).
		Render(string(summary))
}

func (r *Renderer) renderFooter(mdl *model) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Render(mdl.keys.Help().View())
}
