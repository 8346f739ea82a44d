// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is a repository fixture built with go-git, so tests that only read
// the index and attributes never need the git executable.
type Repo struct {
	Root string
	Git  *git.Repository
}

// InitRepo initializes a repository at dir, writes files, stages them and,
// when there is anything to commit, commits them.
func InitRepo(t testing.TB, dir string, files map[string]string) *Repo {
	t.Helper()

	MustMkdirAll(t, dir)
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repository at %s: %v", dir, err)
	}

	r := &Repo{Root: dir, Git: repo}
	if len(files) > 0 {
		r.Commit(t, files)
	}
	return r
}

// Commit writes and stages files, then records a commit.
func (r *Repo) Commit(t testing.TB, files map[string]string) plumbing.Hash {
	t.Helper()

	wt, err := r.Git.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	paths := make([]string, 0, len(files))
	for rel := range files {
		paths = append(paths, rel)
	}
	slices.Sort(paths)

	for _, rel := range paths {
		MustWriteFile(t, r.Root, rel, files[rel])
		if _, err := wt.Add(rel); err != nil {
			t.Fatalf("failed to add %s: %v", rel, err)
		}
	}

	hash, err := wt.Commit("fixture", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash
}

// Head returns the commit HEAD points at.
func (r *Repo) Head(t testing.TB) plumbing.Hash {
	t.Helper()
	ref, err := r.Git.Head()
	if err != nil {
		t.Fatalf("failed to resolve HEAD of %s: %v", r.Root, err)
	}
	return ref.Hash()
}

// AddGitlink inserts a commit-mode index entry at path, the way
// "git update-index --cacheinfo 160000" does.
func (r *Repo) AddGitlink(t testing.TB, path string, hash plumbing.Hash) {
	t.Helper()

	idx, err := r.Git.Storer.Index()
	if err != nil {
		t.Fatalf("failed to read index: %v", err)
	}
	idx.Entries = slices.DeleteFunc(idx.Entries, func(e *index.Entry) bool { return e.Name == path })
	idx.Entries = append(idx.Entries, &index.Entry{
		Name: path,
		Mode: filemode.Submodule,
		Hash: hash,
	})
	slices.SortFunc(idx.Entries, func(a, b *index.Entry) int { return strings.Compare(a.Name, b.Name) })

	if err := r.Git.Storer.SetIndex(idx); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
}

// AddSubmodule creates a repository with files at path inside r and links
// it with a gitlink pointing at its HEAD.
func (r *Repo) AddSubmodule(t testing.TB, path string, files map[string]string) *Repo {
	t.Helper()
	sub := InitRepo(t, filepath.Join(r.Root, filepath.FromSlash(path)), files)
	r.AddGitlink(t, path, sub.Head(t))
	return sub
}

// AbsorbGitDir moves the repository's .git directory to
// <parentGitDir>/modules/<name>, replaces it with a pointer file and sets
// core.worktree, matching the layout "git submodule absorbgitdirs" produces.
func (r *Repo) AbsorbGitDir(t testing.TB, parentGitDir, name string) string {
	t.Helper()

	moduleDir := filepath.Join(parentGitDir, "modules", filepath.FromSlash(name))
	MustMkdirAll(t, filepath.Dir(moduleDir))
	if err := os.Rename(filepath.Join(r.Root, ".git"), moduleDir); err != nil {
		t.Fatalf("failed to move git dir: %v", err)
	}

	toModule, err := filepath.Rel(r.Root, moduleDir)
	if err != nil {
		t.Fatalf("failed to relativize %s: %v", moduleDir, err)
	}
	MustWriteFile(t, r.Root, ".git", "gitdir: "+filepath.ToSlash(toModule)+"\n")

	repo, err := git.PlainOpen(r.Root)
	if err != nil {
		t.Fatalf("failed to reopen %s: %v", r.Root, err)
	}
	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	toWorktree, err := filepath.Rel(moduleDir, r.Root)
	if err != nil {
		t.Fatalf("failed to relativize %s: %v", r.Root, err)
	}
	cfg.Core.Worktree = filepath.ToSlash(toWorktree)
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	r.Git = repo
	return moduleDir
}
