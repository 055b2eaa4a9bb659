package main

import (
	"os"

	"github.com/temirov/wst/cmd/cli"
	"github.com/temirov/wst/internal/ui"
)

// main executes the wst command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		ui.NewErrorRenderer(os.Stderr).Render(executionError)
		os.Exit(1)
	}
}
