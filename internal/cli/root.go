// Package cli wires the ctxstore commands: the TUI (default), the MCP server
// and a handful of scriptable subcommands over the same store.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sadopc/ctxstore/internal/config"
	"github.com/sadopc/ctxstore/internal/store"
	"github.com/sadopc/ctxstore/internal/tui"
)

// Version is stamped at build time.
var Version = "dev"

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// env is the state shared by every command of one invocation.
type env struct {
	cfgFile string
	noColor bool

	cfg    *config.Config
	logger *slog.Logger

	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// NewRootCmd builds the ctxstore command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&env{stdout: os.Stdout, stderr: os.Stderr, now: time.Now})
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:     "ctxstore",
		Short:   "Local work context: todos, meetings, briefings and summaries",
		Version: Version,
		Long: `ctxstore keeps todos, meetings, communication logs, daily briefings,
period summaries and preferences in a single SQLite file.

Run without arguments to open the terminal UI, or use "ctxstore mcp" to
expose the store to an MCP client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runTUI()
		},
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)

	f := root.PersistentFlags()
	f.StringVar(&e.cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/ctxstore/config.yaml)")
	f.String(config.FlagName(config.KeyDBPath), "", "SQLite database path")
	f.String(config.FlagName(config.KeyLogLevel), "", "log level: debug, info, warn or error")
	f.String(config.FlagName(config.KeyLogFormat), "", "log format: text or json")
	f.String(config.FlagName(config.KeyExportDir), "", "directory for exported files")
	f.BoolVar(&e.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newTodoCmd(e),
		newMeetingCmd(e),
		newSummaryCmd(e),
		newBriefingCmd(e),
		newPrefCmd(e),
		newExportCmd(e),
		newMCPCmd(e),
	)
	return root
}

func (e *env) load(cmd *cobra.Command) error {
	if e.noColor {
		color.NoColor = true
	}
	cfg, err := config.Load(e.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.logger = cfg.NewLogger(e.stderr)
	if cfg.File != "" {
		e.logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

func (e *env) openStore(opts ...store.Option) (*store.Store, error) {
	opts = append([]store.Option{store.WithLogger(e.logger)}, opts...)
	st, err := store.New(e.cfg.DBPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// withStore opens the store for the duration of fn.
func (e *env) withStore(fn func(*store.Store) error) error {
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (e *env) runTUI() error {
	// The TUI owns the terminal; nothing may log to it.
	st, err := e.openStore(store.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		return err
	}
	defer st.Close()

	p := tea.NewProgram(tui.NewApp(st, e.cfg.ExportDir), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func (e *env) printf(format string, a ...any) {
	fmt.Fprintf(e.stdout, format, a...)
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		return 1
	}
	return 0
}
