//go:build unix

package engine

import (
	"os"

	"golang.org/x/sys/unix"
)

// QuitSignals are the OS signals that end the loop. SIGHUP is included so
// closing the terminal stops the dashboard at a tick boundary.
var QuitSignals = []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP}
