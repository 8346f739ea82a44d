// SPDX-License-Identifier: MPL-2.0

// Package gitrepo opens repositories with go-git and answers the structural
// questions the collector and the orchestrator ask: where the control
// directory lives, where the worktree is, and what the index tracks.
package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/git-sparta/git-sparta/internal/issue"
)

// DotGit is the name of the control directory or gitdir pointer file.
const DotGit = ".git"

var (
	// ErrBare is returned when a worktree is required but the repository has none.
	ErrBare = errors.New("repository is bare")

	// ErrNoRoot is returned when no enclosing non-submodule repository exists.
	ErrNoRoot = errors.New("no enclosing git repository with a .git directory")
)

// Repo is an opened non-bare repository.
type Repo struct {
	*git.Repository

	// Root is the absolute working tree root.
	Root string
	// GitDir is the absolute control directory. For a submodule this is the
	// directory the .git file points at.
	GitDir string
}

// Open opens the repository whose worktree root is exactly path.
func Open(path string) (*Repo, error) {
	return open(path, false)
}

// Discover opens the repository containing start, walking up as git does.
func Discover(start string) (*Repo, error) {
	return open(start, true)
}

func open(path string, detect bool) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, repositoryError(path, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: detect})
	if err != nil {
		return nil, repositoryError(abs, err)
	}

	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return nil, repositoryError(abs, ErrBare)
	}
	if err != nil {
		return nil, repositoryError(abs, err)
	}

	gitDir, err := controlDir(repo, wt.Filesystem.Root())
	if err != nil {
		return nil, repositoryError(abs, err)
	}

	return &Repo{
		Repository: repo,
		Root:       wt.Filesystem.Root(),
		GitDir:     gitDir,
	}, nil
}

func controlDir(repo *git.Repository, worktree string) (string, error) {
	if fsStorage, ok := repo.Storer.(*filesystem.Storage); ok {
		return filepath.Abs(fsStorage.Filesystem().Root())
	}
	return ResolveGitDir(worktree)
}

func repositoryError(path string, err error) error {
	ctx := issue.NewErrorContext().
		WithKind(issue.KindRepository).
		WithOperation("open repository").
		WithResource(path).
		Wrap(err)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		ctx.WithSuggestion("Run the command inside a git working tree or pass --repo")
	}
	if errors.Is(err, ErrBare) {
		ctx.WithSuggestion("Clone the repository with a working tree")
	}
	return ctx.BuildError()
}

// WorktreeFS returns the worktree as a billy filesystem.
func (r *Repo) WorktreeFS() billy.Filesystem {
	return osfs.New(r.Root)
}

// GitDirFS returns the control directory as a billy filesystem.
func (r *Repo) GitDirFS() billy.Filesystem {
	return osfs.New(r.GitDir)
}

// Index reads the repository index. A repository without an index file
// yields an empty index.
func (r *Repo) Index() (*index.Index, error) {
	idx, err := r.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read index of %s: %w", r.Root, err)
	}
	return idx, nil
}

// HasRepository reports whether dir contains a .git directory or file.
func HasRepository(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, DotGit))
	return err == nil
}

// FindNonSubmoduleRoot walks up from start past submodule worktrees (whose
// .git is a pointer file) to the first directory with a real .git directory.
func FindNonSubmoduleRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		fi, statErr := os.Stat(filepath.Join(dir, DotGit))
		if statErr == nil && fi.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w above %s", ErrNoRoot, start)
		}
		dir = parent
	}
}
