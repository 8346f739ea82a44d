// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/git-sparta/git-sparta/internal/config"
	"github.com/git-sparta/git-sparta/internal/issue"
	"github.com/git-sparta/git-sparta/internal/provision"
)

type teardownOptions struct {
	configDir string
	yes       bool
}

func newTeardownCommand(app *App) *cobra.Command {
	var opts teardownOptions

	cmd := &cobra.Command{
		Use:   "teardown-submodule",
		Short: "Remove a submodule created by setup-submodule",
		Long: `Remove a submodule created by setup-submodule.

The .gitmodules and local config entries, the working directory and the
modules repository are removed. The remote and the shared mirror are left
alone. Stage the removals yourself after reviewing git status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.teardown(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configDir, "config-dir", "", "directory holding the JSON configuration (default: current directory)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *App) teardown(ctx context.Context, opts teardownOptions) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{Dir: opts.configDir})
	if err != nil {
		return err
	}

	a.divider()
	a.heading("Submodule teardown summary")
	a.labelValue("Submodule", cfg.Name)
	a.labelValue("Path", cfg.Path)
	a.labelValue("Project Tag", cfg.Tag)
	a.divider()

	ok, err := a.Confirm(fmt.Sprintf("Remove submodule '%s' and clean metadata?", cfg.Name), false, opts.yes)
	if err != nil {
		return err
	}
	if !ok {
		return issue.Aborted()
	}

	r, err := provision.New(a.Runner, a.Logger).Teardown(ctx, cfg)
	if err != nil {
		return err
	}

	if !r.GitmodulesChanged && !r.LocalConfigChanged && !r.WorktreeRemoved && !r.ModulesRemoved {
		a.note("Nothing to remove")
		return nil
	}
	a.success(fmt.Sprintf("✓ Submodule '%s' removed", cfg.Name))
	return nil
}
