package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version of flakeorder.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	ui.PrintInfo(fmt.Sprintf("flakeorder %s", version))
	if info, ok := debug.ReadBuildInfo(); ok {
		ui.PrintMuted(fmt.Sprintf("built with %s", info.GoVersion))
	}
	ui.PrintInfo("Order-dependent test detection with complete Latin squares")
	ui.PrintInfo("For help: flakeorder --help")
}
