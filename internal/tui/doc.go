// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive pieces of git-sparta: a filterable
// tag/file picker built on Bubble Tea and Bubbles, and a yes/no confirmation
// built on huh.
//
// Every component renders to stderr so that stdout stays reserved for the
// pattern list.
package tui
