// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/git-sparta/git-sparta/internal/config"
	"github.com/git-sparta/git-sparta/internal/discovery"
	"github.com/git-sparta/git-sparta/internal/gitcmd"
	"github.com/git-sparta/git-sparta/internal/gitconfig"
	"github.com/git-sparta/git-sparta/internal/gitrepo"
	"github.com/git-sparta/git-sparta/internal/issue"
)

type (
	// Provisioner runs the setup and teardown pipelines.
	Provisioner struct {
		runner gitcmd.Runner
		editor *gitconfig.Editor
		logger *log.Logger
		config *Config
	}

	// Plan is the outcome of pattern generation, computed before any side
	// effect so the caller can show it and ask for confirmation.
	Plan struct {
		// Source is the repository the patterns were collected from: the
		// shared mirror when configured, else the submodule worktree.
		Source      string
		Patterns    []string
		TagCounts   []discovery.TagCount
		Diagnostics []discovery.Diagnostic
	}
)

// New creates a Provisioner. A nil logger discards output.
func New(runner gitcmd.Runner, logger *log.Logger, opts ...Option) *Provisioner {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Provisioner{runner: runner, editor: gitconfig.NewEditor(runner), logger: logger, config: cfg}
}

// Config returns the provisioner's configuration.
func (p *Provisioner) Config() *Config {
	return p.config
}

// Plan collects the sparse patterns for cfg.Tag.
func (p *Provisioner) Plan(ctx context.Context, cfg *config.Resolved) (*Plan, error) {
	source := cfg.Path
	if cfg.HasMirror() {
		source = cfg.MirrorPath
	}

	if !gitrepo.HasRepository(source) {
		ec := issue.NewErrorContext().
			WithKind(issue.KindRepository).
			WithOperation("generate sparse patterns").
			WithResource(source).
			Wrap(fmt.Errorf("no git repository found at %s", source))
		if cfg.HasMirror() {
			ec.WithSuggestion("Clone the submodule into the shared mirror at " + source)
		} else {
			ec.WithSuggestions(
				"Set "+config.KeySharedMirror+" to a local clone of "+cfg.URL,
				"Or clone the submodule into "+source+" once to read its attributes",
			)
		}
		return nil, stepError(StepPatterns, ec.BuildError())
	}

	p.logger.Info("generating sparse patterns", "source", source, "tag", cfg.Tag)
	collector := &discovery.Collector{Attribute: p.config.Attribute, Logger: p.logger}
	state, diags, err := collector.Collect(ctx, source, cfg.Tag)
	if err != nil {
		return nil, stepError(StepPatterns, err)
	}
	if state.Empty() {
		return nil, stepError(StepPatterns, discovery.NoMatchError(cfg.Tag, source))
	}

	return &Plan{
		Source:      source,
		Patterns:    state.SortedPatterns(),
		TagCounts:   state.SortedTagCounts(),
		Diagnostics: diags,
	}, nil
}

func (p *Provisioner) git(args ...string) *gitcmd.Command {
	return gitcmd.New(p.runner, args...)
}
