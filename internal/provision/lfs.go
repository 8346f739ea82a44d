// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/git-sparta/git-sparta/internal/attributes"
)

const lfsFilter = "lfs"

// fetchLFS smudges large files when the materialized tree declares
// filter=lfs. Every failure here is a warning: the checked-out pointer
// files stay valid without it.
func (p *Provisioner) fetchLFS(ctx context.Context, t *target, r *Report) error {
	stack, err := attributes.LoadStack(osfs.New(t.worktree), osfs.New(t.modules))
	if err != nil {
		r.warn("could not read attributes to detect LFS: %v", err)
		p.logger.Warn("skipping LFS detection", "err", err)
		return nil
	}
	if !attributes.DeclaresFilter(stack, lfsFilter) {
		return nil
	}

	lfs := func(args ...string) error {
		return p.git(append([]string{"lfs"}, args...)...).
			GitDir(t.modules).
			WorkTree(t.worktree).
			Dir(t.worktree).
			Timeout(p.config.FetchTimeout).
			Run(ctx)
	}

	p.logger.Info("fetching LFS objects")
	if err := lfs("install", "--local"); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.warn("git lfs install failed, LFS files were left as pointers: %v", err)
		p.logger.Warn("git lfs install failed (is git-lfs installed?)", "err", err)
		return nil
	}
	if err := lfs("fetch"); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// alternates may already provide the objects
		r.warn("git lfs fetch: %v", err)
		p.logger.Warn("git lfs fetch failed", "err", err)
	}
	if err := lfs("checkout"); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.warn("git lfs checkout: %v", err)
		p.logger.Warn("git lfs checkout failed", "err", err)
		return nil
	}
	r.LFSFetched = true
	return nil
}
