// SPDX-License-Identifier: MPL-2.0

package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultExecutable is the binary ExecRunner runs when Binary is empty.
const DefaultExecutable = "git"

type (
	// Runner executes one git invocation.
	//
	// A non-zero exit is reported as a *CommandError together with the
	// captured Result. Any other error means the process could not be
	// started or was interrupted.
	Runner interface {
		Run(ctx context.Context, inv Invocation) (Result, error)
	}

	// Invocation describes a single git command.
	Invocation struct {
		// GitDir is passed as --git-dir when set.
		GitDir string
		// WorkTree is passed as --work-tree when set.
		WorkTree string
		// Dir is the working directory of the process.
		Dir  string
		Args []string
		// Timeout bounds the process lifetime. Zero means no bound beyond ctx.
		Timeout time.Duration
	}

	// Result is the captured output of a finished command.
	Result struct {
		Stdout   string
		Stderr   string
		ExitCode int
	}

	// ExecRunner runs git as a subprocess.
	ExecRunner struct {
		Binary string
		Logger *log.Logger
	}
)

// Argv returns the full argument vector, global options first.
func (inv Invocation) Argv() []string {
	argv := make([]string, 0, len(inv.Args)+4)
	if inv.GitDir != "" {
		argv = append(argv, "--git-dir", inv.GitDir)
	}
	if inv.WorkTree != "" {
		argv = append(argv, "--work-tree", inv.WorkTree)
	}
	return append(argv, inv.Args...)
}

// String renders the invocation with credentials redacted.
func (inv Invocation) String() string {
	return "git " + strings.Join(RedactArgs(inv.Argv()), " ")
}

// NewExecRunner returns a runner for the git binary on PATH.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	return &ExecRunner{Binary: DefaultExecutable, Logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	binary := r.Binary
	if binary == "" {
		binary = DefaultExecutable
	}

	if r.Logger != nil {
		r.Logger.Debug("running", "cmd", inv.String(), "dir", inv.Dir)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, inv.Argv()...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(),
		"LC_ALL=C",
		// never block on a credential prompt
		"GIT_TERMINAL_PROMPT=0",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%s: %w", inv.String(), ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &CommandError{
			Args:     RedactArgs(inv.Argv()),
			Dir:      inv.Dir,
			Stderr:   strings.TrimSpace(res.Stderr),
			ExitCode: res.ExitCode,
		}
	}

	return res, fmt.Errorf("start %s: %w", binary, err)
}
