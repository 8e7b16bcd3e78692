package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
	"github.com/example/flakeorder/detector/runner"
	"github.com/example/flakeorder/pkg/staticvars"
)

var scanPlan bool

var scanCmd = &cobra.Command{
	Use:   "scan [packages]",
	Short: "Scan Go packages for tests sharing package variables",
	Long: `Load Go packages with their tests and find, for every TestXxx function,
the package-level variables it reaches directly or through calls within its
package. Variables that are assigned, incremented or addressed outside init
count as mutable.

The results are written to the artifact directory as original-order, deps,
field-accesses and fields, in the same formats a JVM build would produce.

EXAMPLES:
  # Scan the module and write facts
  flakeorder scan ./...

  # Scan and plan in one step
  flakeorder scan ./internal/... --plan`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanPlan, "plan", false, "plan orders from the scanned facts")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	ui.PrintStep(fmt.Sprintf("Loading %v", patterns))
	facts, err := staticvars.Load(ctx, ws.Root, patterns...)
	if err != nil {
		return err
	}

	mutable := 0
	for _, c := range facts.Classes {
		for _, f := range c.Fields {
			if !f.Final {
				mutable++
			}
		}
	}
	if err := ws.Facts().WriteFacts(facts.Tests, facts.Deps, facts.Accesses, facts.Classes); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Found %d tests, %d packages, %d mutable package variables",
		len(facts.Tests), len(facts.Classes), mutable))
	ui.PrintInfo(fmt.Sprintf("Facts written to %s", ws.ArtifactsDir()))

	if !scanPlan {
		return nil
	}
	ws.Config.ImmutableTypes = append(ws.Config.ImmutableTypes, staticvars.GoImmutableTypes()...)
	r, closeStore, err := ws.Runner(ctx, runner.WithOracle(facts.Oracle()))
	if err != nil {
		return err
	}
	defer closeStore()
	plan, err := r.Plan(ctx)
	if err != nil {
		return err
	}
	printPlan(viewFromPlan(plan), 0)
	return nil
}
