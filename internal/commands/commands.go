// Package commands holds the non-TUI subcommands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CheatB/zachot-sub000/internal/api"
	"github.com/CheatB/zachot-sub000/internal/config"
	"github.com/CheatB/zachot-sub000/internal/form"
	"github.com/CheatB/zachot-sub000/internal/nav"
	"github.com/CheatB/zachot-sub000/internal/outline"
)

func newClient() (*api.Client, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.BaseURL).WithToken(cfg.Token), nil
}

func openLocator() (*nav.FileLocator, error) {
	path, err := nav.StatePath()
	if err != nil {
		return nil, err
	}
	return nav.NewFileLocator(path)
}

// DraftsCmd lists locally known resumable drafts.
func DraftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drafts",
		Short: "List locally known resume links",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := openLocator()
			if err != nil {
				return err
			}
			known := loc.Known()
			if len(known) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No drafts yet.")
				return nil
			}
			for _, link := range known {
				marker := "  "
				if nav.ParseResumeRef(link) == loc.DraftID() {
					marker = "* "
				}
				fmt.Fprintln(cmd.OutOrStdout(), marker+link)
			}
			return nil
		},
	}
}

// CostCmd prints the gate verdict for a draft without entering the TUI.
func CostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cost <draft-id or resume link>",
		Short: "Show price and balance for a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := nav.ParseResumeRef(args[0])
			if id == "" {
				return fmt.Errorf("no draft id in %q", args[0])
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			cost, err := client.Cost(context.Background(), id)
			if err != nil {
				return err
			}
			verdict := "not enough credits"
			if cost.CanGenerate {
				verdict = "ready to generate"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "price: %d\nbalance: %d\n%s\n", cost.Required, cost.Available, verdict)
			return nil
		},
	}
}

// OutlineCmd exports or imports a draft's structure as YAML.
func OutlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Export or import a draft's structure",
	}
	cmd.AddCommand(outlineExportCmd(), outlineImportCmd())
	return cmd
}

func outlineExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <draft-id>",
		Short: "Write the structure as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := nav.ParseResumeRef(args[0])
			client, err := newClient()
			if err != nil {
				return err
			}
			draft, err := client.GetDraft(context.Background(), id)
			if err != nil {
				return err
			}
			f := form.FromDraft(draft)
			raw, err := outline.Export(f)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			return os.WriteFile(out, raw, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func outlineImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <draft-id> <file>",
		Short: "Replace the structure from a YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := nav.ParseResumeRef(args[0])
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			sections, err := outline.Import(raw)
			if err != nil {
				return err
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			draft, err := client.GetDraft(context.Background(), id)
			if err != nil {
				return err
			}
			f := form.FromDraft(draft)
			f.SetStructure(sections)
			settings := f.Settings()
			if _, err := client.UpdateDraft(context.Background(), id, api.UpdateDraftRequest{Settings: &settings}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d sections\n", len(sections))
			return nil
		},
	}
}

// InitCmd writes the default user config.
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
