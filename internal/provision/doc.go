// SPDX-License-Identifier: MPL-2.0

// Package provision sets up and tears down a sparse submodule.
//
// Setup is a fixed sequence of steps. Each step inspects the current state
// before acting, so running setup again over a finished or half-finished
// submodule converges instead of duplicating work:
//
//	p := provision.New(gitcmd.NewExecRunner(logger), logger)
//	plan, err := p.Plan(ctx, cfg)
//	// show plan.Patterns, ask for confirmation
//	report, err := p.Setup(ctx, cfg, plan)
//
// Every git operation that mutates state goes through a gitcmd.Runner, so the
// pipeline can be driven by gitcmd.Fake in tests. There is no rollback: a
// failure part way leaves the submodule partially linked and Teardown is the
// way back.
package provision
