package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/CheatB/zachot-sub000/internal/api"
	"github.com/CheatB/zachot-sub000/internal/commands"
	"github.com/CheatB/zachot-sub000/internal/config"
	"github.com/CheatB/zachot-sub000/internal/nav"
	"github.com/CheatB/zachot-sub000/internal/tui"
)

func Execute() error {
	return NewRoot().Execute()
}

var runTUI = func(cfg config.Config, client *api.Client, loc nav.Locator, logf func(string, ...any)) error {
	m := tui.NewModel(cfg, client, loc, logf)
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "zachot",
		Short: "Academic writing assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard("")
		},
	}
	root.AddCommand(
		newCmd(),
		resumeCmd(),
		commands.DraftsCmd(),
		commands.CostCmd(),
		commands.OutlineCmd(),
		commands.InitCmd(),
	)
	return root
}

func newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a fresh wizard, abandoning any bound draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := openLocator()
			if err != nil {
				return err
			}
			if err := loc.Clear(); err != nil {
				return err
			}
			return runWizard("")
		},
	}
}

func resumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <draft-id or resume link>",
		Short: "Resume a draft by id or shared link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := nav.ParseResumeRef(args[0])
			if id == "" {
				return fmt.Errorf("no draft id in %q", args[0])
			}
			return runWizard(id)
		},
	}
}

func runWizard(resumeID string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	loc, err := openLocator()
	if err != nil {
		return err
	}
	if resumeID != "" {
		if err := loc.Bind(resumeID, loc.RememberedStep(resumeID)); err != nil {
			return err
		}
	}
	client := api.NewClient(cfg.BaseURL).WithToken(cfg.Token)
	return runTUI(cfg, client, loc, wizardLogger())
}

func openLocator() (*nav.FileLocator, error) {
	path, err := nav.StatePath()
	if err != nil {
		return nil, err
	}
	return nav.NewFileLocator(path)
}

// wizardLogger writes to a file because the TUI owns the terminal.
func wizardLogger() func(string, ...any) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(configDir, "zachot", "wizard.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}
	return log.New(f, "", log.LstdFlags).Printf
}
