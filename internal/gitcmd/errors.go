// SPDX-License-Identifier: MPL-2.0

package gitcmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/git-sparta/git-sparta/internal/issue"
)

// CommandError is a git process that exited with a non-zero status.
type CommandError struct {
	Args     []string
	Dir      string
	Stderr   string
	ExitCode int
}

func (e *CommandError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "git %s exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Stderr)
	}
	return msg.String()
}

// Unwrap makes every CommandError match issue.ErrExternalCommand.
func (e *CommandError) Unwrap() error {
	return issue.ErrExternalCommand
}

// IsCommandError reports whether err is (or wraps) a non-zero git exit.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}
