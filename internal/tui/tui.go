// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme represents the visual theme for TUI components.
type Theme string

const (
	// ThemeDefault uses the base huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
	// ThemeCatppuccin uses the Catppuccin theme.
	ThemeCatppuccin Theme = "catppuccin"
	// ThemeBase16 uses the Base16 theme.
	ThemeBase16 Theme = "base16"
)

// Config holds common configuration for TUI components.
type Config struct {
	// Theme specifies the visual theme to use.
	Theme Theme
	// Accessible replaces the full-screen prompts with line-based ones.
	Accessible bool
	// Width of the picker (0 for auto).
	Width int
	// Height of the picker (0 for auto).
	Height int
	// Input is where prompts read from; nil means stdin.
	Input io.Reader
	// Output is where components render; nil means stderr.
	Output io.Writer
}

// DefaultConfig returns the configuration used by the CLI. Accessible mode
// is enabled when stdin is not a terminal or when ACCESSIBLE is set.
func DefaultConfig() Config {
	return Config{
		Theme:      ThemeDefault,
		Accessible: !isInputTerminal() || os.Getenv("ACCESSIBLE") != "",
		Output:     os.Stderr,
	}
}

// IsInteractive reports whether both stdin and stderr are terminals, which
// the full-screen picker requires.
func IsInteractive() bool {
	return isInputTerminal() && term.IsTerminal(int(os.Stderr.Fd()))
}

func isInputTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func getInput(cfg Config) io.Reader {
	if cfg.Input != nil {
		return cfg.Input
	}
	return os.Stdin
}

func getOutputWriter(cfg Config) io.Writer {
	if cfg.Output != nil {
		return cfg.Output
	}
	return os.Stderr
}

// getHuhTheme converts a Theme to a huh.Theme.
func getHuhTheme(t Theme) *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeDracula:
		return huh.ThemeDracula()
	case ThemeCatppuccin:
		return huh.ThemeCatppuccin()
	case ThemeBase16:
		return huh.ThemeBase16()
	default:
		return huh.ThemeBase()
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	contextStyle = lipgloss.NewStyle().Faint(true)
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	tagsStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)
