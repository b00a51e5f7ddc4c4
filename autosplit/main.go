// Command autosplit drives a LiveSplit timer from the memory of a running
// game.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/autosplit/autosplit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
