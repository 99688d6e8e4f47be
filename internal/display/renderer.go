// Package display renders the interactive surface: the task checklist,
// clarification blocks, final answers, and warnings. All output goes
// through io.Writer for testability; colors are applied only when the
// writer is a terminal.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/gamasenninn/mcp-agent/internal/models"
	"github.com/gamasenninn/mcp-agent/internal/state"
)

// Renderer writes user-facing output. Color is decided once at
// construction from the writer.
type Renderer struct {
	out      io.Writer
	colorize bool
}

// NewRenderer creates a Renderer for the given writer, coloring output
// when it is a terminal.
func NewRenderer(out io.Writer) *Renderer {
	colorize := false
	if f, ok := out.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) && !color.NoColor
	}
	return &Renderer{out: out, colorize: colorize}
}

// NewPlainRenderer creates a Renderer that never colors. Used for exports
// and tests.
func NewPlainRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) paint(c *color.Color, format string, args ...any) string {
	if r.colorize {
		return c.Sprintf(format, args...)
	}
	return fmt.Sprintf(format, args...)
}

// statusMark maps a task state to its checklist symbol.
func statusMark(status models.TaskStatus) string {
	switch status {
	case models.TaskCompleted:
		return "✓"
	case models.TaskFailed:
		return "✗"
	case models.TaskExecuting:
		return "→"
	case models.TaskAwaitingClarification:
		return "?"
	default: // pending, retry_pending
		return "○"
	}
}

func statusColor(status models.TaskStatus) *color.Color {
	switch status {
	case models.TaskCompleted:
		return color.New(color.FgGreen)
	case models.TaskFailed:
		return color.New(color.FgRed)
	case models.TaskAwaitingClarification:
		return color.New(color.FgYellow)
	case models.TaskExecuting:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgHiBlack)
	}
}

// Checklist renders the session's task queue, pending first then
// completed, each line marked by state.
func (r *Renderer) Checklist(sess *models.Session) {
	if len(sess.Pending) == 0 && len(sess.Completed) == 0 {
		fmt.Fprintln(r.out, "No tasks in this session.")
		return
	}

	fmt.Fprintln(r.out, "Tasks:")
	for _, t := range sess.Completed {
		r.checklistLine(t)
	}
	for _, t := range sess.Pending {
		r.checklistLine(t)
	}
}

func (r *Renderer) checklistLine(t *models.Task) {
	mark := r.paint(statusColor(t.Status), "%s", statusMark(t.Status))
	line := fmt.Sprintf("  %s %d. %s", mark, t.ID, t.Description)
	if t.Status == models.TaskFailed && t.Error != "" {
		line += r.paint(color.New(color.FgRed), " (%s)", t.Error)
	}
	fmt.Fprintln(r.out, line)
}

// Answer renders the final answer for a request.
func (r *Renderer) Answer(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintln(r.out, r.paint(color.New(color.FgGreen, color.Bold), "Answer:"))
	fmt.Fprintln(r.out, text)
}

// Question renders a clarification block. The text already carries its
// markdown-ish structure; the heading line gets the color.
func (r *Renderer) Question(text string) {
	for i, line := range strings.Split(text, "\n") {
		if i == 0 || strings.HasPrefix(line, "### ") {
			fmt.Fprintln(r.out, r.paint(color.New(color.FgYellow, color.Bold), "%s", line))
			continue
		}
		fmt.Fprintln(r.out, line)
	}
}

// Paused tells the user an interrupted run was saved.
func (r *Renderer) Paused(sessionID string) {
	fmt.Fprintln(r.out, r.paint(color.New(color.FgYellow), "Paused. State saved."))
	fmt.Fprintf(r.out, "Resume with: mcp-agent run --resume %s\n", sessionID)
}

// Sessions renders the session list as an aligned table, current session
// first.
func (r *Renderer) Sessions(infos []state.SessionInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(r.out, "No sessions.")
		return
	}
	fmt.Fprintf(r.out, "%-38s %-10s %-20s %8s %10s\n", "SESSION", "STATUS", "UPDATED", "PENDING", "COMPLETED")
	for _, info := range infos {
		id := info.ID
		if info.Current {
			id = "* " + id
		} else {
			id = "  " + id
		}
		fmt.Fprintf(r.out, "%-38s %-10s %-20s %8d %10d\n",
			id, info.Status, info.UpdatedAt.Format("2006-01-02 15:04:05"), info.Pending, info.Completed)
	}
}

// Warning is a user-facing warning block, yellow on terminals.
type Warning struct {
	Title      string
	Message    string
	Suggestion string
}

// Display renders the warning to out.
func (w Warning) Display(r *Renderer) {
	var b strings.Builder
	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")
	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}
	if w.Suggestion != "" {
		b.WriteString("    Suggestion: ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}
	fmt.Fprint(r.out, r.paint(color.New(color.FgYellow), "%s", b.String()))
}
