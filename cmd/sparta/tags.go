// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/git-sparta/git-sparta/internal/attributes"
	"github.com/git-sparta/git-sparta/internal/discovery"
)

type tagsOptions struct {
	repo      string
	attribute string
	json      bool
}

func newTagsCommand(app *App) *cobra.Command {
	var opts tagsOptions

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the tags found in the repository and its submodules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.listTags(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.repo, "repo", "", "repository to scan (default: current directory)")
	cmd.Flags().StringVar(&opts.attribute, "attribute", attributes.DefaultAttribute, "gitattributes attribute holding the tags")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the counts as JSON")
	return cmd
}

func (a *App) listTags(ctx context.Context, opts tagsOptions) error {
	root, err := repoRoot(opts.repo)
	if err != nil {
		return err
	}

	collector := &discovery.Collector{Attribute: opts.attribute, Logger: a.Logger}
	counts, diags, err := collector.DiscoverTags(ctx, root)
	a.reportDiagnostics(diags)
	if err != nil {
		return err
	}
	rows := counts.Sorted()

	if opts.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		a.warn(fmt.Sprintf("no '%s' attributes found in %s", opts.attribute, root))
		return nil
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\n", row.Tag, row.Count)
	}
	return tw.Flush()
}
