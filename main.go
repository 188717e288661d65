// The main package for the marketpulse executable.
package main

import (
	"github.com/avollmer/marketpulse/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
