// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/git-sparta/git-sparta/internal/config"
	"github.com/git-sparta/git-sparta/internal/gitcmd"
	"github.com/git-sparta/git-sparta/internal/gitconfig"
	"github.com/git-sparta/git-sparta/internal/gitrepo"
	"github.com/git-sparta/git-sparta/internal/issue"
)

const (
	gitlinkMode = "160000"
	remoteName  = "origin"
)

// target is the set of paths one setup or teardown run works on.
type target struct {
	cfg *config.Resolved
	// root is the worktree of the repository that owns the gitlink.
	root   string
	gitDir string
	// rel is the submodule path relative to root, slash separated.
	rel string
	// worktree is the absolute submodule working directory.
	worktree string
	// modules is the submodule's control directory under gitDir/modules.
	modules string
}

func newTarget(cfg *config.Resolved) (*target, error) {
	rootDir, err := gitrepo.FindNonSubmoduleRoot(cfg.WorkRepo)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindRepository).
			WithOperation("open repository").
			WithResource(cfg.WorkRepo).
			Wrap(err).
			WithSuggestion("Keep the configuration directory inside a git working tree").
			BuildError()
	}
	repo, err := gitrepo.Open(rootDir)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(repo.Root, cfg.Path)
	if err != nil || !isBelow(cfg.Path, repo.Root) {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindConfig).
			WithOperation("resolve " + config.KeySubmodulePath).
			WithResource(cfg.Path).
			Wrap(fmt.Errorf("submodule path must be inside %s", repo.Root)).
			BuildError()
	}

	return &target{
		cfg:      cfg,
		root:     repo.Root,
		gitDir:   repo.GitDir,
		rel:      filepath.ToSlash(rel),
		worktree: cfg.Path,
		modules:  filepath.Join(repo.GitDir, "modules", rel),
	}, nil
}

func (t *target) submodule() gitconfig.Submodule {
	return gitconfig.Submodule{Name: t.cfg.Name, Path: t.rel, URL: t.cfg.URL, Branch: t.cfg.Branch}
}

// Setup runs the pipeline after pattern generation. A nil plan is computed
// first. The report is returned even on failure and shows how far the run got.
func (p *Provisioner) Setup(ctx context.Context, cfg *config.Resolved, plan *Plan) (*Report, error) {
	if plan == nil {
		var err error
		if plan, err = p.Plan(ctx, cfg); err != nil {
			return &Report{}, err
		}
	}
	r := &Report{Patterns: len(plan.Patterns)}

	t, err := newTarget(cfg)
	if err != nil {
		return r, stepError(StepMetadata, err)
	}
	p.logger.Debug("setup target", "root", t.root, "gitDir", t.gitDir, "modules", t.modules)

	steps := []struct {
		step Step
		run  func(context.Context, *target, *Report) error
	}{
		{StepMetadata, p.syncMetadata},
		{StepGitlink, p.ensureGitlink},
		{StepInit, p.initSubmodule},
		{StepModules, p.ensureModules},
		{StepLinkage, p.linkWorktree},
		{StepFetch, p.fetchPinned},
		{StepSparse, func(ctx context.Context, t *target, r *Report) error {
			return p.configureSparse(ctx, t, r, plan.Patterns)
		}},
		{StepMaterialize, p.materialize},
		{StepLFS, p.fetchLFS},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return r, stepError(s.step, err)
		}
		p.logger.Debug("running step", "step", s.step.String())
		if err := s.run(ctx, t, r); err != nil {
			return r, stepError(s.step, err)
		}
	}

	p.logger.Info("submodule ready", "name", cfg.Name, "path", t.worktree, "patterns", r.Patterns)
	return r, nil
}

func (p *Provisioner) syncMetadata(ctx context.Context, t *target, r *Report) error {
	sub := t.submodule()

	changed, err := sub.EnsureGitmodules(ctx, p.editor, filepath.Join(t.root, ".gitmodules"))
	if err != nil {
		return err
	}
	r.GitmodulesChanged = changed
	if changed {
		p.logger.Info("updated .gitmodules", "submodule", sub.Name)
	}

	changed, err = sub.EnsureLocalConfig(ctx, p.editor, filepath.Join(t.gitDir, "config"))
	if err != nil {
		return err
	}
	r.LocalConfigChanged = changed
	if changed {
		p.logger.Info("updated local git configuration", "submodule", sub.Name)
	}
	return nil
}

func (p *Provisioner) ensureGitlink(ctx context.Context, t *target, r *Report) error {
	sha, ok, err := p.gitlinkSHA(ctx, t)
	if err != nil {
		return err
	}
	if ok {
		p.logger.Debug("gitlink already in index", "path", t.rel, "sha", sha)
		r.GitlinkSHA = sha
		return nil
	}

	p.logger.Info("resolving remote tip", "url", gitcmd.RedactURL(t.cfg.URL), "branch", t.cfg.Branch)
	sha, err = p.resolveRemoteTip(ctx, t)
	if err != nil {
		return err
	}
	if err := p.git("update-index", "--add", "--cacheinfo", gitlinkMode, sha, t.rel).Dir(t.root).Run(ctx); err != nil {
		return err
	}
	p.logger.Info("added gitlink", "path", t.rel, "sha", sha)
	r.GitlinkAdded = true
	r.GitlinkSHA = sha
	return nil
}

// gitlinkSHA returns the commit recorded for t.rel when the index holds a
// gitlink there.
func (p *Provisioner) gitlinkSHA(ctx context.Context, t *target) (string, bool, error) {
	out, err := p.git("ls-files", "--stage", "--", t.rel).Dir(t.root).Stdout(ctx)
	if err != nil {
		return "", false, err
	}
	for line := range strings.Lines(out) {
		// <mode> <sha> <stage>\t<path>
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == gitlinkMode {
			return fields[1], true, nil
		}
	}
	return "", false, nil
}

// resolveRemoteTip fetches the configured branch into a scratch bare
// repository and returns the commit FETCH_HEAD points at.
func (p *Provisioner) resolveRemoteTip(ctx context.Context, t *target) (string, error) {
	tmp, err := p.config.TempDir()
	if err != nil {
		return "", fmt.Errorf("create scratch repository: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }() // scratch only

	if err := p.git("init", "--bare", "-q", tmp).Run(ctx); err != nil {
		return "", err
	}
	if err := p.git("remote", "add", remoteName, t.cfg.URL).GitDir(tmp).Run(ctx); err != nil {
		return "", err
	}
	if objects, ok := mirrorObjects(t.cfg); ok {
		if _, err := appendAlternate(tmp, objects); err != nil {
			return "", err
		}
		p.logger.Debug("using mirror objects for tip resolution", "objects", objects)
	}
	if err := p.fetch(ctx, tmp, t.cfg.Branch); err != nil {
		return "", err
	}

	sha, err := p.git("rev-parse", "FETCH_HEAD").GitDir(tmp).Stdout(ctx)
	if err != nil {
		return "", err
	}
	if sha == "" {
		return "", fmt.Errorf("rev-parse FETCH_HEAD returned no commit for %s", t.cfg.Branch)
	}
	return sha, nil
}

func (p *Provisioner) initSubmodule(ctx context.Context, t *target, _ *Report) error {
	return p.git("submodule", "init", "--", t.rel).Dir(t.root).Run(ctx)
}

func (p *Provisioner) ensureModules(ctx context.Context, t *target, r *Report) error {
	if err := os.MkdirAll(t.worktree, 0o755); err != nil {
		return fmt.Errorf("create submodule worktree: %w", err)
	}

	if _, err := os.Stat(t.modules); errors.Is(err, os.ErrNotExist) {
		p.logger.Info("initializing modules repository", "path", t.modules)
		if err := p.git("init", "--bare", "-q", t.modules).Run(ctx); err != nil {
			return err
		}
		r.ModulesCreated = true
	} else if err != nil {
		return err
	}

	objects, ok := mirrorObjects(t.cfg)
	if !ok {
		return nil
	}
	added, err := appendAlternate(t.modules, objects)
	if err != nil {
		return err
	}
	if added {
		p.logger.Info("configured alternates from mirror", "objects", objects)
	}
	r.AlternatesAdded = added
	return nil
}

func (p *Provisioner) linkWorktree(ctx context.Context, t *target, r *Report) error {
	relModules, err := filepath.Rel(t.worktree, t.modules)
	if err != nil {
		return fmt.Errorf("relative path to modules repository: %w", err)
	}
	gitFile := filepath.Join(t.worktree, gitrepo.DotGit)
	if current, readErr := gitrepo.ReadGitFile(gitFile); readErr != nil || filepath.Clean(current) != relModules {
		if err := gitrepo.WriteGitFile(gitFile, relModules); err != nil {
			return fmt.Errorf("write %s: %w", gitFile, err)
		}
		r.GitFileWritten = true
	}

	for _, kv := range [][2]string{
		{"core.bare", "false"},
		{"core.worktree", t.worktree},
	} {
		changed, err := p.setConfig(ctx, t.modules, kv[0], kv[1])
		if err != nil {
			return err
		}
		r.WorktreeConfigured = r.WorktreeConfigured || changed
	}
	return nil
}

// setConfig sets key in the repository at gitDir unless it already holds
// value.
func (p *Provisioner) setConfig(ctx context.Context, gitDir, key, value string) (bool, error) {
	section, name, _ := strings.Cut(key, ".")
	f, err := gitconfig.Open(filepath.Join(gitDir, "config"))
	if err != nil {
		return false, err
	}
	return p.editor.Set(ctx, f, section, "", name, value)
}

func (p *Provisioner) fetchPinned(ctx context.Context, t *target, r *Report) error {
	if err := p.ensureRemote(ctx, t, r); err != nil {
		return err
	}

	sha, ok, err := p.gitlinkSHA(ctx, t)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no gitlink for %s in the index of %s", t.rel, t.root)
	}
	r.GitlinkSHA = sha

	present, err := p.hasCommit(ctx, t.modules, sha)
	if err != nil {
		return err
	}
	if !present {
		p.logger.Info("fetching pinned commit", "sha", sha, "branch", t.cfg.Branch)
		if err := p.fetch(ctx, t.modules, t.cfg.Branch); err != nil {
			return err
		}
		// the pin may lag the branch tip
		if present, err = p.hasCommit(ctx, t.modules, sha); err != nil {
			return err
		} else if !present {
			if err := p.fetch(ctx, t.modules, sha); err != nil {
				return err
			}
		}
		r.Fetched = true
	}

	return p.pointRefs(ctx, t, r, sha)
}

func (p *Provisioner) ensureRemote(ctx context.Context, t *target, r *Report) error {
	current, ok, err := p.git("remote", "get-url", remoteName).GitDir(t.modules).Query(ctx)
	if err != nil {
		return err
	}
	if !ok {
		if err := p.git("remote", "add", remoteName, t.cfg.URL).GitDir(t.modules).Run(ctx); err != nil {
			return err
		}
		p.logger.Info("added remote", "name", remoteName)
		r.RemoteAdded = true
		return nil
	}
	if current != t.cfg.URL {
		if err := p.git("remote", "set-url", remoteName, t.cfg.URL).GitDir(t.modules).Run(ctx); err != nil {
			return err
		}
		p.logger.Info("updated remote url", "name", remoteName, "url", gitcmd.RedactURL(t.cfg.URL))
		r.RemoteUpdated = true
	}
	return nil
}

func (p *Provisioner) hasCommit(ctx context.Context, gitDir, sha string) (bool, error) {
	return p.git("cat-file", "-e", sha+"^{commit}").GitDir(gitDir).OK(ctx)
}

func (p *Provisioner) fetch(ctx context.Context, gitDir, refspec string) error {
	return p.git("fetch", "--depth=1", remoteName, refspec).
		GitDir(gitDir).
		Timeout(p.config.FetchTimeout).
		Run(ctx)
}

// pointRefs moves the branch to sha and attaches HEAD to it.
func (p *Provisioner) pointRefs(ctx context.Context, t *target, r *Report, sha string) error {
	branchRef := "refs/heads/" + t.cfg.Branch

	current, _, err := p.git("rev-parse", "--verify", "-q", branchRef).GitDir(t.modules).Query(ctx)
	if err != nil {
		return err
	}
	if current != sha {
		if err := p.git("update-ref", branchRef, sha).GitDir(t.modules).Run(ctx); err != nil {
			return err
		}
		r.RefsUpdated = true
	}

	head, _, err := p.git("symbolic-ref", "-q", "HEAD").GitDir(t.modules).Query(ctx)
	if err != nil {
		return err
	}
	if head != branchRef {
		if err := p.git("symbolic-ref", "HEAD", branchRef).GitDir(t.modules).Run(ctx); err != nil {
			return err
		}
		r.RefsUpdated = true
	}
	return nil
}

func (p *Provisioner) configureSparse(ctx context.Context, t *target, r *Report, patterns []string) error {
	changed, err := p.setConfig(ctx, t.modules, "core.sparseCheckout", "true")
	if err != nil {
		return err
	}

	written, err := writeSparseFile(t.modules, patterns)
	if err != nil {
		return err
	}
	r.SparseChanged = changed || written
	return nil
}

func (p *Provisioner) materialize(ctx context.Context, t *target, _ *Report) error {
	if err := p.git("read-tree", "-mu", "HEAD").GitDir(t.modules).WorkTree(t.worktree).Run(ctx); err != nil {
		return err
	}
	return p.git("checkout-index", "--all", "--force").GitDir(t.modules).WorkTree(t.worktree).Run(ctx)
}
