// Package cli wires the todo commands: the interactive TUI by default, plus
// scriptable subcommands for the list, the session and the API server.
package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/todo/internal/config"
	"github.com/tgienger/todo/internal/ui"
	"github.com/tgienger/todo/internal/ui/styles"
)

// BuildInfo is set via ldflags
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}

// NewRootCmd builds the command tree
func NewRootCmd(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "A terminal to-do list with optional cloud sync",
		Long: `todo keeps your list locally as a guest, or on a todo server once you sign in.

Run without arguments to open the interactive list.`,
		Version:       info.String(),
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("todo {{.Version}}\n")

	// Global flags
	root.PersistentFlags().String("config", config.DefaultPath(), "config file")

	root.AddCommand(addCmd())
	root.AddCommand(listCmd())
	root.AddCommand(toggleCmd())
	root.AddCommand(editCmd())
	root.AddCommand(deleteCmd())
	root.AddCommand(clearCompletedCmd())
	root.AddCommand(loginCmd())
	root.AddCommand(registerCmd())
	root.AddCommand(logoutCmd())
	root.AddCommand(whoamiCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd(info))

	return root
}

// Execute runs the root command
func Execute(info BuildInfo) error {
	if err := NewRootCmd(info).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// the TUI owns the terminal, so log to a file
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	if !styles.Use(e.cfg.Theme) {
		e.logger.WithField("theme", e.cfg.Theme).Warnf("unknown theme, using %s", styles.DefaultPalette)
	}
	app := ui.NewApp(cmd.Context(), e.store, e.session, e.logger)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

func versionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "todo %s\n", info)
		},
	}
}
