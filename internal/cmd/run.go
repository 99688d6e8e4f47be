package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/gamasenninn/mcp-agent/internal/clarify"
	"github.com/gamasenninn/mcp-agent/internal/classify"
	"github.com/gamasenninn/mcp-agent/internal/config"
	"github.com/gamasenninn/mcp-agent/internal/display"
	"github.com/gamasenninn/mcp-agent/internal/executor"
	"github.com/gamasenninn/mcp-agent/internal/history"
	"github.com/gamasenninn/mcp-agent/internal/logger"
	"github.com/gamasenninn/mcp-agent/internal/models"
	"github.com/gamasenninn/mcp-agent/internal/reasoning"
	"github.com/gamasenninn/mcp-agent/internal/state"
	"github.com/gamasenninn/mcp-agent/internal/tools"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive agent session",
		Long: `Start the agent. With no flags a fresh session begins and the agent
reads requests interactively until exit. Ctrl-C during execution pauses
at the next step boundary and saves state.

Configuration is loaded from .mcp-agent/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Interactive session
  mcp-agent run

  # One request, then exit
  mcp-agent run --once "15 plus 9 then doubled"

  # Resume a paused session
  mcp-agent run --resume 2f1c9a3e-...

  # Other options
  mcp-agent run --verbose                  # Debug-level console output
  mcp-agent run --state-dir /tmp/agent     # Use custom state directory
  mcp-agent run --config custom.yaml       # Use custom config file`,
		Args: cobra.NoArgs,
		RunE: runCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .mcp-agent/config.yaml)")
	cmd.Flags().String("state-dir", "", "Directory for session state")
	cmd.Flags().String("resume", "", "Session id to resume")
	cmd.Flags().String("once", "", "Handle one request and exit")
	cmd.Flags().Bool("verbose", false, "Show detailed execution information")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	resumeID, _ := cmd.Flags().GetString("resume")
	sess, err := app.openSession(resumeID)
	if err != nil {
		return err
	}

	stop := app.interrupt.WatchSignals()
	defer stop()

	if once, _ := cmd.Flags().GetString("once"); once != "" {
		resp, err := app.engine.HandleInput(ctx, sess, once)
		if err != nil {
			return err
		}
		app.render(sess, resp)
		return nil
	}

	if resumeID != "" {
		resp, err := app.engine.Resume(ctx, sess)
		if err != nil {
			return err
		}
		app.render(sess, resp)
	}

	return app.interactive(ctx, sess)
}

// loadRunConfig loads the config file and merges run flags over it.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var stateDir, logLevel *string
	if flag, _ := cmd.Flags().GetString("state-dir"); flag != "" {
		stateDir = &flag
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level := "debug"
		logLevel = &level
	}
	cfg.MergeWithFlags(stateDir, logLevel, nil, nil)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app bundles everything one run needs and owns its cleanup.
type app struct {
	cfg       *config.Config
	store     *state.Store
	hist      *history.Store
	engine    *executor.Engine
	interrupt *executor.Interrupt
	renderer  *display.Renderer
	fileLog   *logger.FileLogger
	log       logger.Logger
}

func newApp(cfg *config.Config) (*app, error) {
	console := logger.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	log := logger.Logger(console)

	fileLog, err := logger.NewFileLogger(cfg.LogDir(), cfg.LogLevel)
	if err != nil {
		console.LogWarn(fmt.Sprintf("file logging disabled: %v", err))
	} else {
		log = logger.NewTee(console, fileLog)
	}

	store, err := state.Open(cfg.StateDir, log)
	if err != nil {
		if fileLog != nil {
			fileLog.Close()
		}
		return nil, err
	}

	renderer := display.NewRenderer(os.Stdout)

	var hist *history.Store
	if cfg.HistoryEnabled {
		hist, err = history.NewStore(cfg.HistoryDB())
		if err != nil {
			display.Warning{
				Title:      "Execution history unavailable",
				Message:    err.Error(),
				Suggestion: "check the history_db_path setting",
			}.Display(renderer)
			hist = nil
		}
	}

	collab, err := reasoning.NewOpenAI(reasoning.Options{
		Model:       cfg.Reasoning.Model,
		BaseURL:     cfg.Reasoning.BaseURL,
		APIKeyEnv:   cfg.Reasoning.APIKeyEnv,
		Temperature: cfg.Reasoning.Temperature,
	}, log)
	if err != nil {
		store.Close()
		if fileLog != nil {
			fileLog.Close()
		}
		return nil, err
	}

	registry := tools.NewRegistry()
	interrupt := executor.NewInterrupt()
	classifier := classify.NewClassifier(collab, hist, cfg.ContextWindow, log)
	retry := classify.NewRetryController(cfg.MaxRetries, cfg.RetryInterval, log)
	exec := executor.NewExecutor(store, registry, classifier, retry, collab, hist, interrupt, log)
	clarifier := clarify.NewController(cfg.MaxClarificationAttempts, nil, log)
	engine := executor.NewEngine(store, collab, registry, exec, clarifier, nil, cfg.ContextWindow, log)

	return &app{
		cfg:       cfg,
		store:     store,
		hist:      hist,
		engine:    engine,
		interrupt: interrupt,
		renderer:  renderer,
		fileLog:   fileLog,
		log:       log,
	}, nil
}

func (a *app) Close() {
	if a.hist != nil {
		a.hist.Close()
	}
	a.store.Close()
	if a.fileLog != nil {
		a.fileLog.Close()
	}
}

// openSession resumes the named session or starts a fresh one.
func (a *app) openSession(resumeID string) (*models.Session, error) {
	if resumeID == "" {
		return a.store.Create()
	}
	sess, err := a.store.Load(resumeID)
	if errors.Is(err, models.ErrSessionNotFound) {
		return nil, fmt.Errorf("session %s not found in %s", resumeID, a.store.Dir())
	}
	return sess, err
}

// interactive reads requests until exit or EOF.
func (a *app) interactive(ctx context.Context, sess *models.Session) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(a.cfg.StateDir, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initialize input: %w", err)
	}
	defer rl.Close()

	started := time.Now()
	defer func() { a.log.LogSessionSummary(sess, time.Since(started)) }()

	fmt.Printf("Session %s. Type a request, 'tasks' for the checklist, 'exit' to quit.\n", sess.ID)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "tasks":
			a.renderer.Checklist(sess)
			continue
		}

		a.interrupt.Reset()
		resp, err := a.engine.HandleInput(ctx, sess, line)
		if err != nil {
			a.log.LogError(fmt.Sprintf("turn failed: %v", err))
			continue
		}
		a.render(sess, resp)
	}
}

// render writes a turn's outcome to the terminal.
func (a *app) render(sess *models.Session, resp executor.Response) {
	switch {
	case resp.Interrupted:
		a.renderer.Paused(sess.ID)
	case resp.Question != "":
		a.renderer.Question(resp.Question)
	case resp.Reply != "":
		a.renderer.Answer(resp.Reply)
	}
}
