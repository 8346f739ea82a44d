// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// Errors carry the operation that failed, the resource involved and remediation
// hints. Each error also has a Kind that places it in the git-sparta error
// taxonomy (configuration, repository, attribute, no-match, external command,
// user abort), and a catalog of Markdown guidance pages that the CLI renders
// in verbose mode.
package issue
