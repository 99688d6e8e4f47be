package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

func exportSession() *models.Session {
	created := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	return &models.Session{
		ID:        "abc-123",
		Status:    models.SessionCompleted,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
		Conversation: []models.Entry{
			{Role: "user", Text: "15 plus 9 then doubled", Timestamp: created},
			{Role: "assistant", Text: "48", Timestamp: created.Add(time.Minute)},
		},
		Completed: []*models.Task{
			{ID: 1, Description: "add 15 and 9", Tool: "add", Status: models.TaskCompleted, Result: "24"},
			{ID: 2, Description: "double | halve the sum", Tool: "multiply", Status: models.TaskCompleted, Result: "48"},
		},
	}
}

func TestSessionMarkdown(t *testing.T) {
	md := sessionMarkdown(exportSession())

	assert.Contains(t, md, "# Session abc-123")
	assert.Contains(t, md, "**user**")
	assert.Contains(t, md, "15 plus 9 then doubled")
	assert.Contains(t, md, "| 1 | add 15 and 9 | add | completed | 24 |")
	// pipes in free text are escaped so the table survives
	assert.Contains(t, md, `double \| halve the sum`)
}

func TestSessionMarkdownShowsErrors(t *testing.T) {
	sess := exportSession()
	sess.Completed = append(sess.Completed, &models.Task{
		ID: 3, Description: "divide", Tool: "divide",
		Status: models.TaskFailed, Error: "division by zero",
	})

	md := sessionMarkdown(sess)
	assert.Contains(t, md, "division by zero")
}

func TestRenderSessionHTML(t *testing.T) {
	html, err := renderSessionHTML(exportSession())
	require.NoError(t, err)

	page := string(html)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Session abc-123</title>")
	assert.Contains(t, page, "<h1") // markdown heading converted
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "48")
}

func TestTableCell(t *testing.T) {
	assert.Equal(t, `a \| b`, tableCell("a | b"))
	assert.Equal(t, "line one line two", tableCell("line one\nline two"))
}
