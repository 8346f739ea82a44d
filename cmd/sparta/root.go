// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/git-sparta/git-sparta/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "git-sparta",
		Short: "Sparse checkouts of git submodules driven by .gitattributes tags",
		Long: TitleStyle.Render("git-sparta") + SubtitleStyle.Render(" - attribute-tagged sparse checkouts") + `

Files are tagged in .gitattributes through an attribute (default "projects"):

  src/**        projects=app,cli
  docs/**       projects=docs
  LICENSE       projects

A bare attribute marks a file as global; it is part of every tag.

` + SubtitleStyle.Render("Examples:") + `
  git-sparta tags                        List the tags of the current repository
  git-sparta generate-sparse-list app    Print the sparse patterns for 'app'
  git-sparta setup-submodule             Provision the submodule described in ./*.json
  git-sparta teardown-submodule          Remove it again`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.SetVerbose(verbose)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every git invocation and show extended error help")

	root.AddCommand(
		newGenerateCommand(app),
		newTagsCommand(app),
		newSetupCommand(app),
		newTeardownCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the command's exit code on failure.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	return 1
}

// handleError prints a failed command's error. A user abort is printed
// plainly; actionable errors get their suggestions, and in verbose mode the
// matching help page.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	if errors.Is(err, issue.ErrUserAborted) && issue.KindOf(err) == issue.KindUserAborted {
		fmt.Fprintln(w, err.Error())
		return
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fang.DefaultErrorHandler(w, styles, err)
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, a.verbose))
	if !a.verbose {
		return
	}
	if page := issue.ForKind(issue.KindOf(err)); page != nil {
		rendered, renderErr := page.Render("dark")
		if renderErr != nil {
			a.Logger.Warn("failed to render help page", "err", renderErr)
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// formatErrorForDisplay formats an error for user display. A StepError
// wrapping an ActionableError keeps the step name in front.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return err.Error()
	}
	if err.Error() != ae.Error() {
		return err.Error() + formatSuggestions(ae, verbose)
	}
	return ae.Format(verbose)
}

func formatSuggestions(ae *issue.ActionableError, verbose bool) string {
	full := ae.Format(verbose)
	return full[len(ae.Error()):]
}
