// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/git-sparta/git-sparta/internal/config"
)

// Teardown removes the submodule's metadata, worktree and modules
// repository. Every step is a no-op when there is nothing to remove. The
// remote and the alternates of other submodules are never touched, and git
// runs only to drop metadata sections.
func (p *Provisioner) Teardown(ctx context.Context, cfg *config.Resolved) (*TeardownReport, error) {
	r := &TeardownReport{}

	t, err := newTarget(cfg)
	if err != nil {
		return r, err
	}
	sub := t.submodule()

	if r.GitmodulesChanged, err = sub.Remove(ctx, p.editor, filepath.Join(t.root, ".gitmodules")); err != nil {
		return r, fmt.Errorf("remove %s from .gitmodules: %w", sub.Name, err)
	}
	if r.GitmodulesChanged {
		p.logger.Info("removed entry from .gitmodules", "submodule", sub.Name)
	}

	if r.LocalConfigChanged, err = sub.Remove(ctx, p.editor, filepath.Join(t.gitDir, "config")); err != nil {
		return r, fmt.Errorf("remove %s from local config: %w", sub.Name, err)
	}
	if r.LocalConfigChanged {
		p.logger.Info("removed entry from local git config", "submodule", sub.Name)
	}

	if err := ctx.Err(); err != nil {
		return r, err
	}

	if r.WorktreeRemoved, err = removeTree(t.worktree); err != nil {
		return r, err
	}
	if r.WorktreeRemoved {
		p.logger.Info("deleted working directory", "path", t.worktree)
	}

	if r.ModulesRemoved, err = removeTree(t.modules); err != nil {
		return r, err
	}
	if r.ModulesRemoved {
		r.Pruned = pruneEmptyParents(filepath.Dir(t.modules), filepath.Join(t.gitDir, "modules"))
		p.logger.Info("removed modules repository", "path", t.modules)
	}

	p.logger.Info("submodule removed; review git status and stage removals as needed", "name", cfg.Name)
	return r, nil
}

func removeTree(path string) (bool, error) {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := os.RemoveAll(path); err != nil {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return true, nil
}

// pruneEmptyParents removes empty directories from start upward, stopping
// at (and never removing) stop or at the first non-empty directory.
func pruneEmptyParents(start, stop string) []string {
	var pruned []string
	for dir := start; isBelow(dir, stop); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
		pruned = append(pruned, dir)
	}
	return pruned
}

func isBelow(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != "." && rel != ".." &&
		!strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
