// Command flakeorder plans test orders that expose order-dependent tests.
package main

import (
	"os"

	"github.com/example/flakeorder/cmd/flakeorder/internal/cli"
	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
)

func main() {
	if err := cli.Execute(); err != nil {
		ui.Out = os.Stderr
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
