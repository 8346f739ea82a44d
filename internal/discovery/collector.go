// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5/plumbing/filemode"

	"github.com/git-sparta/git-sparta/internal/attributes"
	"github.com/git-sparta/git-sparta/internal/gitrepo"
	"github.com/git-sparta/git-sparta/internal/issue"
)

type (
	// Collector walks a repository tree and resolves the tagging attribute
	// for every tracked file.
	Collector struct {
		// Attribute is the attribute to resolve; empty means "projects".
		Attribute string
		// Logger receives debug output; nil discards it.
		Logger *log.Logger
	}

	// walk is the per-traversal accumulator passed down the recursion.
	walk struct {
		ctx   context.Context
		tag   string
		tags  TagCounts
		state *CollectState
		seen  map[string]bool
		diags []Diagnostic
	}
)

// DiscoverTags counts every tag observed in root and its submodules.
func (c *Collector) DiscoverTags(ctx context.Context, root string) (TagCounts, []Diagnostic, error) {
	w := &walk{ctx: ctx, tags: make(TagCounts), seen: make(map[string]bool)}
	if err := c.run(w, root); err != nil {
		return nil, w.diags, err
	}
	return w.tags, w.diags, nil
}

// Collect gathers every file in root and its submodules whose tokens are
// selected by tag. An empty result is not an error here; see NoMatchError.
func (c *Collector) Collect(ctx context.Context, root, tag string) (*CollectState, []Diagnostic, error) {
	w := &walk{ctx: ctx, tag: tag, state: NewCollectState(), seen: make(map[string]bool)}
	if err := c.run(w, root); err != nil {
		return nil, w.diags, err
	}
	return w.state, w.diags, nil
}

// NoMatchError is the error reported when Collect found nothing for tag.
func NoMatchError(tag, root string) error {
	return issue.NewErrorContext().
		WithKind(issue.KindNoMatch).
		WithOperation("collect sparse patterns").
		Wrap(fmt.Errorf("no matching attribute entries found for tag '%s' in %s", tag, root)).
		WithSuggestion("Run 'git-sparta tags' to list the tags that exist").
		BuildError()
}

func (c *Collector) run(w *walk, root string) error {
	repo, err := gitrepo.Discover(root)
	if err != nil {
		return err
	}
	return c.visit(w, repo, "")
}

func (c *Collector) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}

func (c *Collector) visit(w *walk, repo *gitrepo.Repo, prefix string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	key := canonical(repo.Root)
	if w.seen[key] {
		w.diags = append(w.diags, Diagnostic{
			Severity: SeverityWarning, Code: CodeAlreadyVisited, Path: displayPath(prefix),
			Message: "repository already visited through another path",
		})
		return nil
	}
	w.seen[key] = true

	stack, err := attributes.LoadStack(repo.WorktreeFS(), repo.GitDirFS())
	if err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindAttribute).
			WithOperation("load attribute stack").
			WithResource(repo.Root).
			Wrap(err).
			BuildError()
	}
	ev := attributes.NewEvaluator(stack, c.Attribute)

	idx, err := repo.Index()
	if err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindRepository).
			WithOperation("read index").
			WithResource(repo.Root).
			Wrap(err).
			BuildError()
	}

	c.logger().Debug("scanning repository", "path", displayPath(prefix), "entries", len(idx.Entries))

	var gitlinks []string
	for _, entry := range idx.Entries {
		// unmerged entries carry stages 1-3
		if entry.Stage != 0 {
			continue
		}
		if entry.Mode == filemode.Submodule {
			gitlinks = append(gitlinks, entry.Name)
			if err := c.descend(w, repo, prefix, entry.Name); err != nil {
				return err
			}
			continue
		}
		pattern := joinPrefix(prefix, entry.Name)
		for _, token := range ev.Resolve(entry.Name).Tokens() {
			w.record(pattern, token)
		}
	}

	discovered, diags, err := DiscoverSubmodules(repo.GitDir, repo.Root)
	w.diags = append(w.diags, diags...)
	if err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindRepository).
			WithOperation("scan submodule metadata").
			WithResource(repo.GitDir).
			Wrap(err).
			BuildError()
	}

	for _, sub := range discovered {
		if linkedInIndex(sub, gitlinks) {
			continue
		}
		if err := c.descend(w, repo, prefix, sub); err != nil {
			return err
		}
		gitlinks = append(gitlinks, sub)
	}
	return nil
}

func (c *Collector) descend(w *walk, parent *gitrepo.Repo, prefix, rel string) error {
	next := joinPrefix(prefix, rel)
	dir := filepath.Join(parent.Root, filepath.FromSlash(rel))
	if !gitrepo.HasRepository(dir) {
		w.diags = append(w.diags, Diagnostic{
			Severity: SeverityInfo, Code: CodeNotCheckedOut, Path: next,
			Message: "submodule is not checked out",
		})
		return nil
	}

	sub, err := gitrepo.Open(dir)
	if err != nil {
		return fmt.Errorf("submodule %s: %w", next, err)
	}
	c.logger().Debug("entering submodule", "path", next)
	return c.visit(w, sub, next)
}

func (w *walk) record(pattern, token string) {
	if w.state == nil {
		w.tags.Record(token)
		return
	}
	w.state.RecordMatch(pattern, token, w.tag)
}

func linkedInIndex(discovered string, gitlinks []string) bool {
	for _, link := range gitlinks {
		if sameSubmodule(discovered, link) {
			return true
		}
	}
	return false
}

func joinPrefix(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

func displayPath(prefix string) string {
	if prefix == "" {
		return "."
	}
	return prefix
}

func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}
