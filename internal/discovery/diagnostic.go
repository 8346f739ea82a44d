// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityInfo indicates an expected skip worth mentioning in verbose output.
	SeverityInfo Severity = "info"

	// CodeNotCheckedOut is a gitlink whose path has no repository.
	CodeNotCheckedOut = "submodule_not_checked_out"
	// CodeWorktreeUnset is a module repository without core.worktree.
	CodeWorktreeUnset = "module_worktree_unset"
	// CodeWorktreeUnresolved is a core.worktree that does not exist on disk.
	CodeWorktreeUnresolved = "module_worktree_unresolved"
	// CodeOutsideWorktree is a core.worktree that resolves outside the worktree.
	CodeOutsideWorktree = "module_outside_worktree"
	// CodeAlreadyVisited is a repository reached a second time through another path.
	CodeAlreadyVisited = "submodule_already_visited"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level.
		Severity Severity
		// Code is a machine-readable identifier (e.g., "submodule_not_checked_out").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}
)
