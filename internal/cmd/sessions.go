package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/gamasenninn/mcp-agent/internal/config"
	"github.com/gamasenninn/mcp-agent/internal/display"
	"github.com/gamasenninn/mcp-agent/internal/models"
	"github.com/gamasenninn/mcp-agent/internal/state"
)

// NewSessionsCommand creates the sessions command group
func NewSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage saved sessions",
	}
	cmd.PersistentFlags().String("state-dir", "", "Directory for session state")

	cmd.AddCommand(newSessionsListCommand())
	cmd.AddCommand(newSessionsShowCommand())
	cmd.AddCommand(newSessionsArchiveCommand())
	cmd.AddCommand(newSessionsExportCommand())
	return cmd
}

// openStore opens the state directory named by flags or config. The agent
// must not be running; the session lock is exclusive.
func openStore(cmd *cobra.Command) (*state.Store, error) {
	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("state-dir"); dir != "" {
		cfg.StateDir = dir
	}
	store, err := state.Open(cfg.StateDir, nil)
	if models.IsSessionLock(err) {
		return nil, fmt.Errorf("state directory %s is in use; stop the running agent first", cfg.StateDir)
	}
	return store, err
}

func newSessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the current and archived sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			infos, err := store.List()
			if err != nil {
				return err
			}
			display.NewRenderer(os.Stdout).Sessions(infos)
			return nil
		},
	}
}

func newSessionsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session's conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			transcript, err := store.Transcript(args[0])
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(transcript)
			return err
		},
	}
}

func newSessionsArchiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Archive the current session and start fresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := store.Load("")
			if err != nil {
				return err
			}
			if err := store.Clear(sess); err != nil {
				return err
			}
			fmt.Printf("Archived session %s\n", sess.ID)
			return nil
		},
	}
}

func newSessionsExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session as an HTML report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := loadAnywhere(store, args[0])
			if err != nil {
				return err
			}

			html, err := renderSessionHTML(sess)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = fmt.Sprintf("session-%s.html", sess.ID)
			}
			if err := os.WriteFile(out, html, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Printf("Exported %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default: session-<id>.html)")
	return cmd
}

// loadAnywhere finds the session among archived sessions first, then the
// live one.
func loadAnywhere(store *state.Store, id string) (*models.Session, error) {
	if sess, err := store.LoadArchived(id); err == nil {
		return sess, nil
	}
	return store.Load(id)
}

// renderSessionHTML builds a markdown report and converts it with goldmark.
func renderSessionHTML(sess *models.Session) ([]byte, error) {
	md := sessionMarkdown(sess)

	converter := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := converter.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Session %s</title>\n</head>\n<body>\n", sess.ID)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// sessionMarkdown renders the full session as a markdown document.
func sessionMarkdown(sess *models.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", sess.ID)
	fmt.Fprintf(&b, "- Status: %s\n", sess.Status)
	fmt.Fprintf(&b, "- Created: %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Updated: %s\n\n", sess.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(sess.Conversation) > 0 {
		b.WriteString("## Conversation\n\n")
		for _, entry := range sess.Conversation {
			fmt.Fprintf(&b, "**%s** (%s):\n\n%s\n\n", entry.Role,
				entry.Timestamp.Format("15:04:05"), entry.Text)
		}
	}

	tasks := append(append([]*models.Task{}, sess.Completed...), sess.Pending...)
	if len(tasks) > 0 {
		b.WriteString("## Tasks\n\n")
		b.WriteString("| # | Description | Tool | Status | Result |\n")
		b.WriteString("|---|-------------|------|--------|--------|\n")
		for _, t := range tasks {
			outcome := t.Result
			if t.Error != "" {
				outcome = t.Error
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				t.ID, tableCell(t.Description), t.Tool, t.Status, tableCell(outcome))
		}
	}
	return b.String()
}

// tableCell keeps free text from breaking the markdown table.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
