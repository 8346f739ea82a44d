// SPDX-License-Identifier: MPL-2.0

// Package gitcmd runs the git executable.
//
// Everything that writes objects, refs or indexes goes through a Runner, so
// the orchestration in package provision can be exercised against Fake
// without a git binary. ExecRunner is the production implementation; Command
// is a small builder with the three wrappers the orchestrator needs:
// Run (must succeed), Stdout (trimmed output) and OK (exit status only).
package gitcmd
