// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"

	"github.com/git-sparta/git-sparta/internal/issue"
)

// Setup steps in execution order.
const (
	StepPatterns Step = iota + 1
	StepMetadata
	StepGitlink
	StepInit
	StepModules
	StepLinkage
	StepFetch
	StepSparse
	StepMaterialize
	StepLFS
)

type (
	// Step identifies one stage of the setup pipeline.
	Step int

	// StepError is the failure of a single setup step.
	StepError struct {
		Step Step
		Err  error
	}

	// Report records which setup steps changed state. A second setup over
	// an unchanged configuration reports no changes except the
	// unconditional materialization.
	Report struct {
		Patterns           int
		GitmodulesChanged  bool
		LocalConfigChanged bool
		GitlinkAdded       bool
		GitlinkSHA         string
		ModulesCreated     bool
		AlternatesAdded    bool
		GitFileWritten     bool
		WorktreeConfigured bool
		RemoteAdded        bool
		RemoteUpdated      bool
		Fetched            bool
		RefsUpdated        bool
		SparseChanged      bool
		LFSFetched         bool
		// Warnings are non-fatal problems, such as a missing git-lfs.
		Warnings []string
	}

	// TeardownReport records what teardown removed.
	TeardownReport struct {
		GitmodulesChanged  bool
		LocalConfigChanged bool
		WorktreeRemoved    bool
		ModulesRemoved     bool
		// Pruned lists the empty parent directories removed below the
		// modules root.
		Pruned []string
	}
)

func (s Step) String() string {
	switch s {
	case StepPatterns:
		return "generate sparse patterns"
	case StepMetadata:
		return "sync submodule metadata"
	case StepGitlink:
		return "ensure gitlink"
	case StepInit:
		return "initialize submodule"
	case StepModules:
		return "prepare modules repository"
	case StepLinkage:
		return "link worktree"
	case StepFetch:
		return "fetch pinned commit"
	case StepSparse:
		return "configure sparse checkout"
	case StepMaterialize:
		return "materialize files"
	case StepLFS:
		return "fetch LFS objects"
	default:
		return fmt.Sprintf("step %d", int(s))
	}
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Changed reports whether any step modified state.
func (r *Report) Changed() bool {
	return r.GitmodulesChanged || r.LocalConfigChanged || r.GitlinkAdded ||
		r.ModulesCreated || r.AlternatesAdded || r.GitFileWritten ||
		r.WorktreeConfigured || r.RemoteAdded || r.RemoteUpdated ||
		r.Fetched || r.RefsUpdated || r.SparseChanged
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// stepError wraps err for step. Failures after the worktree has been
// linked point at teardown, since nothing is rolled back.
func stepError(step Step, err error) error {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return err
	}

	wrapped := &StepError{Step: step, Err: err}
	if step < StepLinkage {
		return wrapped
	}
	return issue.NewErrorContext().
		WithKind(kindOf(err)).
		WithOperation("set up submodule").
		Wrap(wrapped).
		WithSuggestion("The submodule is partially set up; run 'git-sparta teardown-submodule' and retry").
		BuildError()
}

func kindOf(err error) issue.Kind {
	if k := issue.KindOf(err); k != issue.KindUnknown {
		return k
	}
	if errors.Is(err, issue.ErrExternalCommand) {
		return issue.KindExternalCommand
	}
	return issue.KindUnknown
}
