// SPDX-License-Identifier: MPL-2.0

package gitcmd

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// Command builds an Invocation step by step.
//
//	sha, err := gitcmd.New(runner).GitDir(tmp).Args("rev-parse", "FETCH_HEAD").Stdout(ctx)
type Command struct {
	runner Runner
	inv    Invocation
}

// New starts a command on runner with optional initial arguments.
func New(runner Runner, args ...string) *Command {
	return &Command{runner: runner, inv: Invocation{Args: slices.Clone(args)}}
}

func (c *Command) GitDir(dir string) *Command {
	c.inv.GitDir = dir
	return c
}

func (c *Command) WorkTree(dir string) *Command {
	c.inv.WorkTree = dir
	return c
}

// Dir sets the process working directory.
func (c *Command) Dir(dir string) *Command {
	c.inv.Dir = dir
	return c
}

// Args appends arguments.
func (c *Command) Args(args ...string) *Command {
	c.inv.Args = append(c.inv.Args, args...)
	return c
}

func (c *Command) Timeout(d time.Duration) *Command {
	c.inv.Timeout = d
	return c
}

// Invocation returns a copy of the invocation built so far.
func (c *Command) Invocation() Invocation {
	inv := c.inv
	inv.Args = slices.Clone(c.inv.Args)
	return inv
}

// Exec runs the command and returns the raw result.
func (c *Command) Exec(ctx context.Context) (Result, error) {
	return c.runner.Run(ctx, c.Invocation())
}

// Run fails unless the command exits zero.
func (c *Command) Run(ctx context.Context) error {
	_, err := c.Exec(ctx)
	return err
}

// Stdout runs the command and returns its trimmed standard output.
func (c *Command) Stdout(ctx context.Context) (string, error) {
	res, err := c.Exec(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// OK reports whether the command exited zero. Only failures to run the
// command at all are returned as errors.
func (c *Command) OK(ctx context.Context) (bool, error) {
	_, err := c.Exec(ctx)
	if err == nil {
		return true, nil
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return false, nil
	}
	return false, err
}

// Query runs a lookup command. A non-zero exit is "not found": it yields
// ok=false and no error.
func (c *Command) Query(ctx context.Context) (out string, ok bool, err error) {
	res, err := c.Exec(ctx)
	if err == nil {
		return strings.TrimSpace(res.Stdout), true, nil
	}
	if IsCommandError(err) {
		return "", false, nil
	}
	return "", false, err
}
