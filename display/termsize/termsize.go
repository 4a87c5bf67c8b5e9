// Package termsize detects the terminal the dashboard draws on.
package termsize

import (
	"os"
	"strconv"

	"github.com/charmbracelet/x/term"
)

// Fallback dimensions when neither the TTY nor the environment knows.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// Overridable for tests.
var (
	getSize    = term.GetSize
	isTerminal = term.IsTerminal
)

// Detect returns the current terminal dimensions.
// It asks the TTY behind stdout first, then falls back to the COLUMNS/LINES
// environment variables, and finally to 80x24.
func Detect() (width, height int) {
	w, h, err := getSize(os.Stdout.Fd())
	if err == nil && w > 0 && h > 0 {
		return w, h
	}

	width = envInt("COLUMNS")
	height = envInt("LINES")

	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	return width, height
}

// Interactive reports whether stdout is a terminal. The full-screen
// dashboard needs one; piped output falls back to the plain renderer.
func Interactive() bool {
	return isTerminal(os.Stdout.Fd())
}

func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
