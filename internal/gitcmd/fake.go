// SPDX-License-Identifier: MPL-2.0

package gitcmd

import (
	"context"
	"slices"
	"strings"
	"sync"
)

type (
	// Fake is a scripted Runner for tests. Invocations are matched against
	// registered argument prefixes, most recent registration first. An
	// unmatched invocation succeeds with empty output.
	Fake struct {
		mu    sync.Mutex
		rules []*FakeRule
		calls []Invocation
	}

	// FakeRule is the scripted behavior for one argument prefix.
	FakeRule struct {
		prefix []string
		fn     func(Invocation) (Result, error)
	}
)

// On registers a rule for invocations whose Args start with prefix.
func (f *Fake) On(prefix ...string) *FakeRule {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule := &FakeRule{prefix: prefix}
	f.rules = append(f.rules, rule)
	return rule
}

// Return makes matching invocations succeed with stdout.
func (r *FakeRule) Return(stdout string) {
	r.fn = func(Invocation) (Result, error) { return Result{Stdout: stdout}, nil }
}

// Fail makes matching invocations exit with code and stderr.
func (r *FakeRule) Fail(code int, stderr string) {
	r.fn = func(inv Invocation) (Result, error) {
		return Result{Stderr: stderr, ExitCode: code}, &CommandError{
			Args: RedactArgs(inv.Argv()), Dir: inv.Dir, Stderr: stderr, ExitCode: code,
		}
	}
}

// Do delegates matching invocations to fn.
func (r *FakeRule) Do(fn func(Invocation) (Result, error)) {
	r.fn = fn
}

func (f *Fake) Run(ctx context.Context, inv Invocation) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, inv)
	var fn func(Invocation) (Result, error)
	for i := len(f.rules) - 1; i >= 0; i-- {
		rule := f.rules[i]
		if rule.fn != nil && hasPrefix(inv.Args, rule.prefix) {
			fn = rule.fn
			break
		}
	}
	f.mu.Unlock()

	if fn == nil {
		return Result{}, nil
	}
	return fn(inv)
}

// Calls returns every invocation seen so far.
func (f *Fake) Calls() []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Count returns how many invocations started with prefix.
func (f *Fake) Count(prefix ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, inv := range f.calls {
		if hasPrefix(inv.Args, prefix) {
			n++
		}
	}
	return n
}

// Commands renders every invocation's Args joined by spaces.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, inv := range f.calls {
		out[i] = strings.Join(inv.Args, " ")
	}
	return out
}

// Reset forgets recorded invocations but keeps the rules.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func hasPrefix(args, prefix []string) bool {
	return len(args) >= len(prefix) && slices.Equal(args[:len(prefix)], prefix)
}
