package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
	"github.com/example/flakeorder/detector/domain"
	transport "github.com/example/flakeorder/internal/transport/grpc"
	"github.com/example/flakeorder/pkg/id"
)

var (
	planRemote  string
	planShow    int
	planTimeout time.Duration
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute affected tests and write test orders",
	Long: `Run the full pipeline against the artifact directory: detect classpath
changes, expand the selected tests to every test sharing mutable state with
them, derive the pairs that must run back to back, and write the fewest
orders that cover them as order-1..order-N plus num-of-orders.

The run is recorded in the run database; see 'flakeorder history'.

EXAMPLES:
  # Plan with the discovered configuration
  flakeorder plan

  # Show every test of every order
  flakeorder plan --show -1

  # Ask a running 'flakeorder serve' instead
  flakeorder plan --remote localhost:7070`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planRemote, "remote", "", "address of a flakeorder server to plan on")
	planCmd.Flags().IntVar(&planShow, "show", 10, "tests to list per order (-1 for all, 0 for none)")
	planCmd.Flags().DurationVar(&planTimeout, "timeout", 10*time.Minute, "planning timeout")
}

// planView is what gets printed for a plan, local or remote.
type planView struct {
	RunID        string
	Status       string
	SelectAll    bool
	Universe     int
	Affected     int
	Units        int
	Required     int
	Construction string
	SquareOrder  int
	Schedules    [][]string
	Remaining    []string
}

func viewFromPlan(p *domain.Plan) planView {
	v := planView{
		RunID:        p.RunID,
		Status:       p.Status().String(),
		SelectAll:    p.SelectAll,
		Universe:     p.UniverseSize,
		Affected:     len(p.Affected),
		Units:        len(p.Units),
		Required:     p.RequiredPairs,
		Construction: p.Construction.String(),
		SquareOrder:  p.SquareOrder,
	}
	for _, s := range p.Schedules {
		v.Schedules = append(v.Schedules, s.Tests)
	}
	for _, pair := range p.Remaining {
		v.Remaining = append(v.Remaining, pair.String())
	}
	return v
}

func viewFromStruct(st *structpb.Struct) planView {
	f := st.GetFields()
	num := func(k string) int { return int(f[k].GetNumberValue()) }
	strs := func(v *structpb.Value) []string {
		var out []string
		for _, item := range v.GetListValue().GetValues() {
			out = append(out, item.GetStringValue())
		}
		return out
	}
	v := planView{
		RunID:        f["run_id"].GetStringValue(),
		Status:       f["status"].GetStringValue(),
		SelectAll:    f["select_all"].GetBoolValue(),
		Universe:     num("universe_size"),
		Affected:     len(f["affected"].GetListValue().GetValues()),
		Units:        len(f["units"].GetListValue().GetValues()),
		Required:     num("required_pairs"),
		Construction: f["construction"].GetStringValue(),
		SquareOrder:  num("square_order"),
		Remaining:    strs(f["remaining"]),
	}
	for _, s := range f["schedules"].GetListValue().GetValues() {
		v.Schedules = append(v.Schedules, strs(s))
	}
	return v
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), planTimeout)
	defer cancel()

	var view planView
	start := time.Now()
	if planRemote != "" {
		ui.PrintStep(fmt.Sprintf("Planning on %s", planRemote))
		conn, err := grpc.NewClient(planRemote, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", planRemote, err)
		}
		defer conn.Close()
		resp, err := transport.NewPlannerClient(conn).Plan(ctx)
		if err != nil {
			return err
		}
		view = viewFromStruct(resp)
	} else {
		ws, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		ui.PrintStep(fmt.Sprintf("Planning from %s", ws.ArtifactsDir()))
		r, closeStore, err := ws.Runner(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		plan, err := r.Plan(ctx)
		if err != nil {
			return err
		}
		view = viewFromPlan(plan)
	}

	printPlan(view, time.Since(start))
	return nil
}

func printPlan(v planView, elapsed time.Duration) {
	ui.PrintHeader("Plan")
	affected := fmt.Sprintf("%d of %d tests", v.Affected, v.Universe)
	if v.SelectAll {
		affected += " (all)"
	}
	square := "none"
	if v.SquareOrder > 0 {
		square = fmt.Sprintf("order %d, %s", v.SquareOrder, v.Construction)
	}
	ui.PrintKeyValues([][2]string{
		{"Run", id.Short(v.RunID)},
		{"Status", ui.StatusText(v.Status)},
		{"Affected", affected},
		{"Units", fmt.Sprintf("%d", v.Units)},
		{"Required pairs", fmt.Sprintf("%d", v.Required)},
		{"Square", square},
		{"Orders", fmt.Sprintf("%d", len(v.Schedules))},
		{"Elapsed", ui.FormatDuration(elapsed)},
	})

	if planShow != 0 && len(v.Schedules) > 0 {
		ui.PrintHeader("Orders")
		for i, tests := range v.Schedules {
			ui.PrintSchedule(i+1, tests, planShow)
		}
	}

	switch {
	case len(v.Remaining) > 0:
		ui.PrintWarning(fmt.Sprintf("%d pairs not covered by the order cap:", len(v.Remaining)))
		for i, p := range v.Remaining {
			if i == 10 {
				ui.PrintMuted(fmt.Sprintf("... and %d more", len(v.Remaining)-10))
				break
			}
			ui.PrintInfo(p)
		}
	case len(v.Schedules) == 0:
		ui.PrintSuccess("No pairs to cover; nothing to run")
	default:
		ui.PrintSuccess(fmt.Sprintf("All %d pairs covered by %d orders", v.Required, len(v.Schedules)))
	}
}
