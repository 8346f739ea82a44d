// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/git-sparta/git-sparta/internal/attributes"
	"github.com/git-sparta/git-sparta/internal/config"
	"github.com/git-sparta/git-sparta/internal/gitcmd"
	"github.com/git-sparta/git-sparta/internal/issue"
	"github.com/git-sparta/git-sparta/internal/provision"
)

type setupOptions struct {
	configDir    string
	yes          bool
	attribute    string
	fetchTimeout time.Duration
}

func newSetupCommand(app *App) *cobra.Command {
	var opts setupOptions

	cmd := &cobra.Command{
		Use:   "setup-submodule",
		Short: "Add or refresh a sparse submodule described by a JSON config",
		Long: `Add or refresh a sparse submodule described by a JSON config.

The configuration directory is searched for the first *.json file holding
SUBMODULE_NAME, SUBMODULE_PATH, SUBMODULE_URL, SUBMODULE_BRANCH and
PROJECT_TAG. *.local.json, .project_local.json and the SUBMODULE_URL and
SHARED_MIRROR_PATH environment variables override the URL and the mirror.

Running setup again over an unchanged configuration changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configDir, "config-dir", "", "directory holding the JSON configuration (default: current directory)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().StringVar(&opts.attribute, "attribute", attributes.DefaultAttribute, "gitattributes attribute holding the tags")
	cmd.Flags().DurationVar(&opts.fetchTimeout, "fetch-timeout", provision.DefaultFetchTimeout, "timeout for each fetch (0 disables it)")
	return cmd
}

func (a *App) setup(ctx context.Context, opts setupOptions) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{Dir: opts.configDir})
	if err != nil {
		return err
	}

	p := provision.New(a.Runner, a.Logger,
		provision.WithAttribute(opts.attribute),
		provision.WithFetchTimeout(opts.fetchTimeout),
	)

	plan, err := p.Plan(ctx, cfg)
	if plan != nil {
		a.reportDiagnostics(plan.Diagnostics)
	}
	if err != nil {
		return err
	}

	a.printSetupSummary(cfg, plan)

	ok, err := a.Confirm("Proceed with submodule setup?", true, opts.yes)
	if err != nil {
		return err
	}
	if !ok {
		return issue.Aborted()
	}

	report, err := p.Setup(ctx, cfg, plan)
	if err != nil {
		return err
	}
	a.printSetupReport(cfg, report)
	return nil
}

func (a *App) printSetupSummary(cfg *config.Resolved, plan *provision.Plan) {
	a.divider()
	a.heading("Submodule setup summary")
	a.labelValue("Configuration", cfg.ConfigFile)
	a.labelValue("Submodule", cfg.Name)
	a.labelValue("Path", cfg.Path)
	a.labelValue("URL", gitcmd.RedactURL(cfg.URL))
	a.labelValue("Branch", cfg.Branch)
	a.labelValue("Project Tag", cfg.Tag)
	a.labelValue("Sparse Patterns", len(plan.Patterns))
	if a.verbose {
		a.bulletList(plan.Patterns...)
	}
	if cfg.HasMirror() {
		a.labelValue("Mirror", cfg.MirrorPath)
	} else {
		a.note("Mirror: <none>")
	}
	a.divider()
}

// printSetupReport closes the run. Step progress and warnings were
// already logged by the provisioner.
func (a *App) printSetupReport(cfg *config.Resolved, r *provision.Report) {
	if !r.Changed() {
		a.note("Submodule already up to date")
	}
	if len(r.Warnings) > 0 {
		a.warn(fmt.Sprintf("Finished with %d warning(s)", len(r.Warnings)))
	}
	a.success(fmt.Sprintf("✓ Submodule '%s' ready at %s", cfg.Name, cfg.Path))
}
