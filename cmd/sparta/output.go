// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/git-sparta/git-sparta/internal/discovery"
)

const dividerWidth = 56

func (a *App) divider() {
	fmt.Fprintln(a.stderr, dividerStyle.Render(strings.Repeat("─", dividerWidth)))
}

func (a *App) heading(text string) {
	fmt.Fprintln(a.stderr, TitleStyle.Render(text))
}

func (a *App) note(text string) {
	fmt.Fprintln(a.stderr, SubtitleStyle.Render(text))
}

func (a *App) labelValue(label string, value any) {
	fmt.Fprintf(a.stderr, "%s %v\n", labelStyle.Render(label+":"), value)
}

func (a *App) bulletList(lines ...string) {
	for _, line := range lines {
		if line == "" {
			continue
		}
		fmt.Fprintf(a.stderr, "  %s %s\n", bulletStyle.Render("•"), line)
	}
}

func (a *App) success(text string) {
	fmt.Fprintln(a.stderr, SuccessStyle.Render(text))
}

func (a *App) warn(text string) {
	fmt.Fprintln(a.stderr, WarningStyle.Render(text))
}

// reportDiagnostics logs discovery diagnostics. Info diagnostics are only
// shown in verbose mode.
func (a *App) reportDiagnostics(diags []discovery.Diagnostic) {
	for _, d := range diags {
		switch d.Severity {
		case discovery.SeverityWarning:
			a.Logger.Warn(d.Message, "code", d.Code, "path", d.Path)
		default:
			a.Logger.Debug(d.Message, "code", d.Code, "path", d.Path)
		}
	}
}
