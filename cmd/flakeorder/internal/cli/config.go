package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
	"github.com/example/flakeorder/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after discovery and command-line overrides, as
YAML that can be saved to .flakeorder.yaml.

EXAMPLES:
  flakeorder config
  flakeorder config --granularity test > .flakeorder.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	if ws.ConfigPath != "" {
		ui.PrintMuted("# from " + ws.ConfigPath)
	} else {
		ui.PrintMuted("# defaults, no " + config.FileName + " found")
	}
	return config.Write(ui.Out, ws.Config)
}
