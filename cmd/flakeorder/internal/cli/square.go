package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/detector/square"
)

var squareMaxOrder int

var squareCmd = &cobra.Command{
	Use:   "square N",
	Short: "Print a row-complete square of order N",
	Long: `Print the rows the planner would use for N units. Every ordered pair of
distinct symbols appears adjacent in exactly one row. Orders 3 and 5 have
no such square and fall back to a padded square of N+1 rows. Orders above
--max-order are rejected.

EXAMPLES:
  flakeorder square 6
  flakeorder square 2000 --max-order 2048`,
	Args: cobra.ExactArgs(1),
	RunE: runSquare,
}

func init() {
	squareCmd.Flags().IntVar(&squareMaxOrder, "max-order", domain.DefaultMaxSquareOrder, "largest order accepted")
}

func runSquare(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("order must be an integer: %w", err)
	}
	if n > squareMaxOrder {
		return fmt.Errorf("%w: order %d exceeds the limit of %d", domain.ErrInvalidOrder, n, squareMaxOrder)
	}
	sq, err := square.NewGenerator().Generate(n)
	if err != nil {
		return err
	}

	ui.PrintHeader(fmt.Sprintf("Square of order %d", n))
	ui.PrintKeyValues([][2]string{
		{"Construction", sq.Construction.String()},
		{"Rows", strconv.Itoa(len(sq.Rows))},
		{"Exact", strconv.FormatBool(sq.Exact())},
	})
	fmt.Fprintln(ui.Out)

	width := len(strconv.Itoa(n - 1))
	lines := make([]string, len(sq.Rows))
	for i, row := range sq.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%*d", width, v)
		}
		lines[i] = strings.Join(cells, " ")
	}
	ui.PrintBox(lines...)
	return nil
}
