package square

import (
	"fmt"

	"github.com/example/flakeorder/detector/domain"
)

// Verify checks the adjacency property of a square. Every row must be a
// permutation of 0..Order-1. An exact square must have Order rows with
// every ordered pair of distinct symbols adjacent exactly once; a padded
// square must cover every ordered pair at least once.
func Verify(sq *domain.Square) error {
	n := sq.Order
	if n < 2 {
		return fmt.Errorf("%w: order %d", domain.ErrInvalidOrder, n)
	}
	if sq.Exact() && len(sq.Rows) != n {
		return fmt.Errorf("%w: order %d has %d rows", domain.ErrConstructionFailed, n, len(sq.Rows))
	}

	counts := make([]int, n*n)
	for r, row := range sq.Rows {
		if err := checkPermutation(row, n); err != nil {
			return fmt.Errorf("%w: row %d: %v", domain.ErrConstructionFailed, r, err)
		}
		for i := 0; i+1 < len(row); i++ {
			counts[row[i]*n+row[i+1]]++
		}
	}

	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			if a == b {
				continue
			}
			c := counts[a*n+b]
			if c == 0 {
				return fmt.Errorf("%w: pair (%d,%d) never adjacent", domain.ErrConstructionFailed, a, b)
			}
			if sq.Exact() && c > 1 {
				return fmt.Errorf("%w: pair (%d,%d) adjacent %d times", domain.ErrConstructionFailed, a, b, c)
			}
		}
	}
	return nil
}

// VerifyCycles checks that the cycle view of an exact square covers every
// arc of the complete directed graph on Order+1 vertices exactly once.
func VerifyCycles(sq *domain.Square) error {
	if !sq.Exact() {
		return fmt.Errorf("%w: %s square has no cycle decomposition",
			domain.ErrConstructionFailed, sq.Construction)
	}
	v := sq.Order + 1
	counts := make([]int, v*v)
	for i := range sq.Rows {
		cycle := sq.Cycle(i)
		for j := range cycle {
			a, b := cycle[j], cycle[(j+1)%len(cycle)]
			counts[a*v+b]++
		}
	}
	for a := 0; a < v; a++ {
		for b := 0; b < v; b++ {
			if a != b && counts[a*v+b] != 1 {
				return fmt.Errorf("%w: arc (%d,%d) covered %d times",
					domain.ErrConstructionFailed, a, b, counts[a*v+b])
			}
		}
	}
	return nil
}

func checkPermutation(row []int, n int) error {
	if len(row) != n {
		return fmt.Errorf("length %d, want %d", len(row), n)
	}
	seen := make([]bool, n)
	for _, v := range row {
		if v < 0 || v >= n {
			return fmt.Errorf("symbol %d out of range", v)
		}
		if seen[v] {
			return fmt.Errorf("symbol %d repeated", v)
		}
		seen[v] = true
	}
	return nil
}
