// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the git-sparta CLI.
//
// The root command wires the configuration provider, the git runner and the
// interactive components into an App; every subcommand receives that App and
// writes progress to stderr, keeping stdout for machine-readable output.
package cmd
