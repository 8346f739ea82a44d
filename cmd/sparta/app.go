// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/git-sparta/git-sparta/internal/config"
	"github.com/git-sparta/git-sparta/internal/gitcmd"
	"github.com/git-sparta/git-sparta/internal/tui"
)

type (
	// PickFunc shows the interactive picker.
	PickFunc func(data tui.PickerData) (tui.Outcome, error)

	// ConfirmFunc asks a yes/no question; autoYes answers without asking.
	ConfirmFunc func(prompt string, defaultYes, autoYes bool) (bool, error)

	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and reaches configuration, git and the terminal only
	// through it.
	App struct {
		Config  config.Provider
		Runner  gitcmd.Runner
		Pick    PickFunc
		Confirm ConfirmFunc
		Logger  *log.Logger

		verbose bool
		stdout  io.Writer
		stderr  io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  config.Provider
		Runner  gitcmd.Runner
		Pick    PickFunc
		Confirm ConfirmFunc
		Logger  *log.Logger
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Logger == nil {
		deps.Logger = newLogger(deps.Stderr)
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = gitcmd.NewExecRunner(deps.Logger)
	}
	if deps.Pick == nil {
		deps.Pick = func(data tui.PickerData) (tui.Outcome, error) {
			return tui.Pick(data, tui.DefaultConfig())
		}
	}
	if deps.Confirm == nil {
		deps.Confirm = func(prompt string, defaultYes, autoYes bool) (bool, error) {
			return tui.Confirm(prompt, defaultYes, autoYes, tui.DefaultConfig())
		}
	}

	return &App{
		Config:  deps.Config,
		Runner:  deps.Runner,
		Pick:    deps.Pick,
		Confirm: deps.Confirm,
		Logger:  deps.Logger,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix: "git-sparta",
		Level:  log.InfoLevel,
	})
}

// SetVerbose switches debug logging on, which includes every git invocation.
func (a *App) SetVerbose(v bool) {
	a.verbose = v
	if v {
		a.Logger.SetLevel(log.DebugLevel)
	} else {
		a.Logger.SetLevel(log.InfoLevel)
	}
}
