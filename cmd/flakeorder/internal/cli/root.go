package cli

import (
	"io"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/flakeorder/cmd/flakeorder/internal/workspace"
	"github.com/example/flakeorder/detector/domain"
)

var (
	workDir      string
	configFile   string
	artifactsDir string
	granularity  string
	maxSchedules int
	selectAll    bool
	excludes     []string
	quiet        bool
)

var rootCmd = &cobra.Command{
	Use:   "flakeorder",
	Short: "Plan test orders that expose order-dependent flaky tests",
	Long: `flakeorder plans a small set of test execution orders that together run
every pair of potentially interfering tests (or test classes) back to back,
in both directions.

Pairs come from shared-state facts: tests that touch the same mutable static
field (Java) or package variable (Go) may pollute each other. Without access
facts every pair of units is planned. Orders are drawn from a complete Latin
square so that a handful of runs covers all required pairs.

Only tests affected by a change are planned. A test is affected if it was
selected upstream, or if it depends on a class with mutable static state that
a selected test also depends on. A changed classpath re-plans everything.

WORKFLOW:
  1. Produce facts in .flakeorder/ (original-order, deps, field-accesses,
     fields, selected-tests, classpath), or for Go run: flakeorder scan ./...
  2. flakeorder plan
  3. Run your suite once per .flakeorder/order-N file
  4. flakeorder history  (review past runs)

EXAMPLES:
  # Plan from the artifact directory
  flakeorder plan

  # Plan individual tests instead of classes, at most 20 orders
  flakeorder plan --granularity test --max-schedules 20

  # Only compute affected tests
  flakeorder select

  # Scan Go packages and plan
  flakeorder scan ./... --plan

  # Print a square of order 7
  flakeorder square 7

  # Re-plan whenever facts change
  flakeorder watch

  # Serve the planner over gRPC, run history and metrics on :9090
  flakeorder serve --addr :7070 --http-addr :9090`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			log.SetOutput(io.Discard)
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&workDir, "dir", "C", ".", "project directory")
	flags.StringVar(&configFile, "config", "", "configuration file (default: discover .flakeorder.yaml)")
	flags.StringVar(&artifactsDir, "artifacts", "", "artifact directory (overrides config)")
	flags.StringVar(&granularity, "granularity", "", "unit to permute: class or test (overrides config)")
	flags.IntVar(&maxSchedules, "max-schedules", -1, "cap on emitted orders, 0 for unlimited (overrides config)")
	flags.BoolVar(&selectAll, "select-all", false, "treat every test as affected")
	flags.StringSliceVar(&excludes, "exclude", nil, "glob of tests to drop, repeatable")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress log output")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(squareCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// openWorkspace loads the configuration and applies command-line overrides.
func openWorkspace(cmd *cobra.Command) (*workspace.Workspace, error) {
	flags := cmd.Flags()
	return workspace.Open(workDir, configFile, func(c *domain.Config) {
		if artifactsDir != "" {
			if abs, err := filepath.Abs(artifactsDir); err == nil {
				c.ArtifactsDir = abs
			}
		}
		if granularity != "" {
			c.Granularity = domain.Granularity(granularity)
		}
		if flags.Changed("max-schedules") {
			c.MaxSchedules = maxSchedules
		}
		if selectAll {
			c.SelectAll = true
		}
		if len(excludes) > 0 {
			c.Exclude = append(c.Exclude, excludes...)
		}
	})
}
