// SPDX-License-Identifier: MPL-2.0

// Package discovery walks a repository and every nested submodule, resolving
// the tagging attribute for each tracked file.
//
// Submodules are found from two independent sources:
//   - gitlink entries in the index (mode 160000)
//   - module repositories under <gitdir>/modules whose core.worktree points
//     back into the worktree
//
// Each submodule is visited exactly once. Index gitlinks are visited first, in
// index order; module repositories the index does not reference are visited
// afterwards.
//
// File organization:
//   - state.go: TagCounts and CollectState aggregates
//   - submodules.go: the <gitdir>/modules scan (DiscoverSubmodules)
//   - collector.go: the recursive walk (Collector)
//   - diagnostic.go: non-fatal findings returned to the CLI
package discovery
