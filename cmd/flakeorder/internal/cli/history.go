package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
	"github.com/example/flakeorder/pkg/id"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent planning runs",
	Long: `List recent runs from the run database, newest first.

EXAMPLES:
  flakeorder history
  flakeorder history --limit 50`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	runs, err := r.History(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		ui.PrintInfo("No runs recorded yet (use 'flakeorder plan')")
		return nil
	}

	ui.PrintHeader("Runs")
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		affected := strconv.Itoa(run.AffectedCount)
		if run.SelectAll {
			affected += "*"
		}
		rows = append(rows, []string{
			id.Short(run.ID),
			run.CreatedAt.Local().Format(time.DateTime),
			run.Status.String(),
			affected,
			strconv.Itoa(run.UnitCount),
			strconv.Itoa(run.PairCount),
			strconv.Itoa(run.ScheduleCount),
			strconv.Itoa(run.RemainingPairs),
			ui.FormatDuration(run.Duration()),
		})
	}
	ui.PrintTable([]string{"RUN", "CREATED", "STATUS", "AFFECTED", "UNITS", "PAIRS", "ORDERS", "LEFT", "TOOK"}, rows)

	for _, run := range runs {
		if run.FailureReason != "" {
			ui.PrintError(fmt.Sprintf("%s: %s", id.Short(run.ID), run.FailureReason))
		}
	}
	ui.PrintMuted("* every test selected")
	return nil
}
