// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/git-sparta/git-sparta/internal/gitconfig"
)

// ModulesDir is the directory under a git dir holding submodule repositories.
const ModulesDir = "modules"

// DiscoverSubmodules scans <gitDir>/modules for module repositories whose
// core.worktree resolves inside worktree, and returns those worktrees as
// sorted, deduplicated, slash-separated paths relative to worktree.
//
// Module repositories nested inside another module repository belong to that
// submodule and are left for the recursive visit to find.
func DiscoverSubmodules(gitDir, worktree string) ([]string, []Diagnostic, error) {
	modulesRoot := filepath.Join(gitDir, ModulesDir)
	if fi, err := os.Stat(modulesRoot); err != nil || !fi.IsDir() {
		return nil, nil, nil
	}

	configs, err := doublestar.Glob(os.DirFS(modulesRoot), "**/config", doublestar.WithFilesOnly())
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", modulesRoot, err)
	}

	moduleDirs := make([]string, 0, len(configs))
	for _, cfg := range configs {
		dir := path.Dir(cfg)
		if dir != "." && isModuleRepo(filepath.Join(modulesRoot, filepath.FromSlash(dir))) {
			moduleDirs = append(moduleDirs, dir)
		}
	}
	slices.Sort(moduleDirs)

	root, err := filepath.EvalSymlinks(worktree)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve worktree %s: %w", worktree, err)
	}

	var (
		found []string
		diags []Diagnostic
	)
	for i, dir := range moduleDirs {
		if nestedInModule(dir, moduleDirs[:i]) {
			continue
		}
		moduleDir := filepath.Join(modulesRoot, filepath.FromSlash(dir))
		rel, diag := moduleWorktree(moduleDir, root)
		if diag != nil {
			diags = append(diags, *diag)
			continue
		}
		found = append(found, rel)
	}

	slices.Sort(found)
	return slices.Compact(found), diags, nil
}

func isModuleRepo(dir string) bool {
	for _, name := range []string{"HEAD", "config"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// nestedInModule reports whether dir lies below one of the earlier (sorted)
// module directories.
func nestedInModule(dir string, earlier []string) bool {
	for _, parent := range earlier {
		if strings.HasPrefix(dir, parent+"/") {
			return true
		}
	}
	return false
}

func moduleWorktree(moduleDir, root string) (string, *Diagnostic) {
	cfg, err := gitconfig.Open(filepath.Join(moduleDir, "config"))
	if err != nil {
		return "", &Diagnostic{
			Severity: SeverityWarning, Code: CodeWorktreeUnresolved, Path: moduleDir,
			Message: "module config is unreadable", Cause: err,
		}
	}

	wt, ok := cfg.Value("core", "", "worktree")
	if !ok || wt == "" {
		return "", &Diagnostic{
			Severity: SeverityInfo, Code: CodeWorktreeUnset, Path: moduleDir,
			Message: "module repository has no core.worktree",
		}
	}

	target := filepath.FromSlash(wt)
	if !filepath.IsAbs(target) {
		target = filepath.Join(moduleDir, target)
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		severity := SeverityInfo
		if !errors.Is(err, fs.ErrNotExist) {
			severity = SeverityWarning
		}
		return "", &Diagnostic{
			Severity: severity, Code: CodeWorktreeUnresolved, Path: moduleDir,
			Message: "core.worktree " + wt + " cannot be resolved", Cause: err,
		}
	}

	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &Diagnostic{
			Severity: SeverityWarning, Code: CodeOutsideWorktree, Path: moduleDir,
			Message: "core.worktree " + wt + " is outside " + root,
		}
	}
	return filepath.ToSlash(rel), nil
}

// sameSubmodule reports whether a path found in the modules scan names the
// same submodule as an index gitlink. Besides plain equality it accepts one
// duplicated consecutive segment on either side ("a/b/b/c" ~ "a/b/c"), a
// layout older tooling produced when it nested a module repository inside
// its own name.
func sameSubmodule(discovered, gitlink string) bool {
	if discovered == gitlink {
		return true
	}
	return slices.Contains(collapseOnce(discovered), gitlink) ||
		slices.Contains(collapseOnce(gitlink), discovered)
}

// collapseOnce returns every variant of p with one duplicated consecutive
// segment removed.
func collapseOnce(p string) []string {
	segs := strings.Split(p, "/")
	var out []string
	for i := 1; i < len(segs); i++ {
		if segs[i] == segs[i-1] {
			variant := slices.Concat(segs[:i], segs[i+1:])
			out = append(out, strings.Join(variant, "/"))
		}
	}
	return out
}
