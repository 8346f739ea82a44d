// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// Confirm asks a yes/no question and returns the answer. autoYes answers
// yes without prompting. Interrupting the prompt counts as "no".
func Confirm(prompt string, defaultYes, autoYes bool, cfg Config) (bool, error) {
	if autoYes {
		return true, nil
	}

	answer := defaultYes
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	).
		WithTheme(getHuhTheme(cfg.Theme)).
		WithAccessible(cfg.Accessible).
		WithShowHelp(false).
		WithInput(getInput(cfg)).
		WithOutput(getOutputWriter(cfg))

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirm: %w", err)
	}
	return answer, nil
}
