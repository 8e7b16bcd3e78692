package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
)

var selectWrite bool

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Compute the affected tests only",
	Long: `Compute which tests a change affects without planning orders.

A test is affected when it was selected upstream (selected-tests), or when
it depends on a class with mutable static state that a selected test also
depends on. A changed classpath or a missing selected-tests file affects
every test.

EXAMPLES:
  # List affected tests
  flakeorder select

  # Also write them to .flakeorder/affected-tests
  flakeorder select --write`,
	Args: cobra.NoArgs,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().BoolVar(&selectWrite, "write", false, "write the affected-tests artifact")
}

func runSelect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	r, closeStore, err := ws.Runner(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := r.ComputeAffected(ctx)
	if err != nil {
		return err
	}

	ui.PrintHeader("Affected Tests")
	if res.SelectAll {
		ui.PrintWarning(fmt.Sprintf("All %d tests affected: %s", len(res.Tests), res.Reason))
	} else {
		ui.PrintInfo(fmt.Sprintf("%d of %d tests affected", len(res.Tests), len(res.Universe)))
	}
	for _, t := range res.Tests {
		ui.PrintInfo(t)
	}
	if len(res.Skipped) > 0 {
		ui.PrintMuted(fmt.Sprintf("%d classes without metadata were skipped", len(res.Skipped)))
	}

	if selectWrite {
		if err := ws.Facts().WriteAffected(ctx, res.Tests); err != nil {
			return err
		}
		ui.PrintSuccess("Wrote affected-tests")
	}
	return nil
}
