// Package color decides whether node-pulse writes ANSI color and applies
// that decision to both styling libraries in use: lipgloss for the
// dashboard widgets and fatih/color for plain-mode text and fatal errors.
//
// It honors NO_COLOR (https://no-color.org/) and turns color off when the
// output is not a terminal.
package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	fatih "github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Overridable for tests.
var (
	isTerminal       = isatty.IsTerminal
	isCygwinTerminal = isatty.IsCygwinTerminal
)

// Disabled reports whether color written to fd should be suppressed:
// NO_COLOR is set (any value, even empty) or fd is not a terminal.
func Disabled(fd uintptr) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return !isTerminal(fd) && !isCygwinTerminal(fd)
}

// Apply configures both libraries for stdout and returns whether color is
// enabled.
func Apply() bool {
	if Disabled(os.Stdout.Fd()) {
		ForceDisable()
		return false
	}
	fatih.NoColor = false
	return true
}

// ForceDisable turns color off unconditionally, for --no-color and tests.
func ForceDisable() {
	lipgloss.SetColorProfile(termenv.Ascii)
	fatih.NoColor = true
}

// StripANSI removes ANSI escape sequences from s. Plain mode uses it for
// third-party output that colors itself.
func StripANSI(s string) string {
	var result []byte
	inEscape := false
	for i := 0; i < len(s); i++ {
		if inEscape {
			if (s[i] >= 'a' && s[i] <= 'z') || (s[i] >= 'A' && s[i] <= 'Z') || s[i] == '~' {
				inEscape = false
			}
			continue
		}
		if s[i] == '\x1b' {
			inEscape = true
			continue
		}
		result = append(result, s[i])
	}
	return string(result)
}
