// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/git-sparta/git-sparta/internal/attributes"
	"github.com/git-sparta/git-sparta/internal/discovery"
	"github.com/git-sparta/git-sparta/internal/issue"
	"github.com/git-sparta/git-sparta/internal/tui"
)

type generateOptions struct {
	tag       string
	yes       bool
	repo      string
	attribute string
}

func newGenerateCommand(app *App) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate-sparse-list [tag]",
		Short: "Print the sparse-checkout patterns selected by a tag",
		Long: `Print the sparse-checkout patterns selected by a tag, one per line.

Without a tag, the tags found in the repository and its checked-out
submodules are offered in an interactive picker. With a tag and without
--yes, the matching files are shown for review before printing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.tag = args[0]
			}
			return app.generate(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the interactive picker")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "repository to scan (default: current directory)")
	cmd.Flags().StringVar(&opts.attribute, "attribute", attributes.DefaultAttribute, "gitattributes attribute holding the tags")
	return cmd
}

func (a *App) generate(ctx context.Context, opts generateOptions) error {
	root, err := repoRoot(opts.repo)
	if err != nil {
		return err
	}
	collector := &discovery.Collector{Attribute: opts.attribute, Logger: a.Logger}

	tag := opts.tag
	pickedInteractively := false
	if tag == "" {
		if opts.yes {
			return issue.NewErrorContext().
				WithOperation("generate sparse patterns").
				WithSuggestion("Pass a tag, or run without --yes to pick one interactively").
				Wrap(fmt.Errorf("a tag argument is required with --yes")).
				BuildError()
		}
		if tag, err = a.selectTag(ctx, collector, root, opts.attribute); err != nil {
			return err
		}
		pickedInteractively = true
	}

	state, diags, err := collector.Collect(ctx, root, tag)
	a.reportDiagnostics(diags)
	if err != nil {
		return err
	}
	if state.Empty() {
		return discovery.NoMatchError(tag, root)
	}

	if !opts.yes && !pickedInteractively {
		outcome, err := a.Pick(tui.PickerData{
			Context:      root,
			InitialQuery: tag,
			Tags:         tagRows(state.SortedTagCounts()),
			Files:        fileRows(state.Files()),
		})
		if err != nil {
			return err
		}
		if !outcome.Accepted {
			return issue.Aborted()
		}
	}

	for _, pattern := range state.SortedPatterns() {
		fmt.Fprintln(a.stdout, pattern)
	}
	return nil
}

func (a *App) selectTag(ctx context.Context, collector *discovery.Collector, root, attribute string) (string, error) {
	counts, diags, err := collector.DiscoverTags(ctx, root)
	a.reportDiagnostics(diags)
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "", noTagsError(root, attribute)
	}

	outcome, err := a.Pick(tui.PickerData{
		Context: root,
		Title:   "Select a project tag",
		Tags:    tagRows(counts.Sorted()),
	})
	if err != nil {
		return "", err
	}
	return tui.ResolveTag(outcome)
}

func noTagsError(root, attribute string) error {
	if attribute == "" {
		attribute = attributes.DefaultAttribute
	}
	return issue.NewErrorContext().
		WithKind(issue.KindNoMatch).
		WithOperation("discover tags").
		WithResource(root).
		WithSuggestion(fmt.Sprintf("Define the '%s' attribute in a .gitattributes file", attribute)).
		Wrap(fmt.Errorf("no '%s' attributes found", attribute)).
		BuildError()
}

func repoRoot(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	return abs, nil
}

func tagRows(counts []discovery.TagCount) []tui.TagRow {
	rows := make([]tui.TagRow, len(counts))
	for i, c := range counts {
		rows[i] = tui.TagRow{Name: c.Tag, Count: c.Count}
	}
	return rows
}

func fileRows(files []discovery.FileTags) []tui.FileRow {
	rows := make([]tui.FileRow, len(files))
	for i, f := range files {
		rows[i] = tui.FileRow{Path: f.Path, Tags: f.Tags}
	}
	return rows
}
