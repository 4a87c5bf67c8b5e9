//go:build !unix

package engine

import "os"

// QuitSignals are the OS signals that end the loop.
var QuitSignals = []os.Signal{os.Interrupt}
