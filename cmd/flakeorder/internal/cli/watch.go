package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
	"github.com/example/flakeorder/cmd/flakeorder/internal/watch"
	"github.com/example/flakeorder/internal/depfile"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-plan whenever the facts change",
	Long: `Watch the artifact directory and run 'plan' after facts change. Bursts of
writes are coalesced and only one plan runs at a time. Files the planner
writes itself are ignored.

EXAMPLES:
  flakeorder watch
  flakeorder watch --debounce 2s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before re-planning")
}

// plannerOutputs are files a plan writes into the artifact directory.
var plannerOutputs = []string{
	depfile.ScheduleFilePrefix + "*",
	depfile.NumOrdersFile,
	depfile.AffectedFile,
	depfile.ChecksumsFile,
	"*.db",
	"*.db-*",
	"*.tmp",
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(ws.ArtifactsDir(), 0o755); err != nil {
		return err
	}
	r, closeStore, err := ws.Runner(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	w, err := watch.New(watch.Config{
		Dir:      ws.ArtifactsDir(),
		Ignore:   plannerOutputs,
		Debounce: watchDebounce,
	})
	if err != nil {
		return err
	}

	ui.PrintStep(fmt.Sprintf("Watching %s (Ctrl-C to stop)", ws.ArtifactsDir()))
	return w.Run(ctx, func(ctx context.Context, changed []string) {
		ui.PrintStep(fmt.Sprintf("Changed: %s", strings.Join(changed, ", ")))
		start := time.Now()
		plan, err := r.Plan(ctx)
		if err != nil {
			ui.PrintError(err.Error())
			return
		}
		printPlan(viewFromPlan(plan), time.Since(start))
	})
}
