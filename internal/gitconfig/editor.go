// SPDX-License-Identifier: MPL-2.0

package gitconfig

import (
	"context"
	"fmt"

	"github.com/git-sparta/git-sparta/internal/gitcmd"
)

// Editor writes git-config files with `git config --file`. Lines it does not
// touch, comments included, are left as git found them.
type Editor struct {
	runner gitcmd.Runner
}

func NewEditor(runner gitcmd.Runner) *Editor {
	return &Editor{runner: runner}
}

// Set writes key unless f already holds value, and reports whether it wrote.
// The file is created when missing.
func (e *Editor) Set(ctx context.Context, f *File, section, subsection, key, value string) (bool, error) {
	if current, ok := f.Value(section, subsection, key); ok && current == value {
		return false, nil
	}
	name := configKey(section, subsection, key)
	if err := gitcmd.New(e.runner, "config", "--file", f.path, name, value).Run(ctx); err != nil {
		return false, fmt.Errorf("set %s in %s: %w", name, f.path, err)
	}
	f.set(section, subsection, key, value)
	return true, nil
}

// RemoveSubsection drops [section "subsection"] and reports whether it existed.
func (e *Editor) RemoveSubsection(ctx context.Context, f *File, section, subsection string) (bool, error) {
	if !f.hasSubsection(section, subsection) {
		return false, nil
	}
	name := section + "." + subsection
	if err := gitcmd.New(e.runner, "config", "--file", f.path, "--remove-section", name).Run(ctx); err != nil {
		return false, fmt.Errorf("remove %s from %s: %w", name, f.path, err)
	}
	f.dropSubsection(section, subsection)
	return true, nil
}

func configKey(section, subsection, key string) string {
	if subsection == "" {
		return section + "." + key
	}
	return section + "." + subsection + "." + key
}
