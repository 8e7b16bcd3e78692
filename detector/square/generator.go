package square

import (
	"fmt"

	"github.com/example/flakeorder/detector/domain"
)

// Builder constructs row-complete squares.
type Builder interface {
	// Generate returns a square of order n.
	Generate(n int) (*domain.Square, error)
}

// Generator builds Tuscan squares for any order n >= 2.
//
// Even orders use the cyclic construction. Order 9 uses a fixed table.
// Other orders congruent to 1 mod 4 are doubled from order (n+1)/2, and
// orders congruent to 3 mod 4 extend the cyclic square of order n-1.
// Orders 3 and 5 have no Tuscan square and fall back to a padded square
// with n+1 rows. Every construction is closed form.
type Generator struct{}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns a verified square of order n. Only orders 3 and 5 may
// yield a padded square; any other inexact result is reported as
// domain.ErrConstructionFailed.
func (g *Generator) Generate(n int) (*domain.Square, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 symbols, got %d", domain.ErrInvalidOrder, n)
	}

	sq, err := g.build(n)
	if err != nil {
		return nil, err
	}
	if err := requireExact(sq); err != nil {
		return nil, err
	}
	if err := Verify(sq); err != nil {
		return nil, err
	}
	return sq, nil
}

func (g *Generator) build(n int) (*domain.Square, error) {
	switch {
	case n%2 == 0:
		return &domain.Square{Order: n, Rows: cyclicRows(n), Construction: domain.ConstructionCyclic}, nil
	case n == 9:
		return &domain.Square{Order: n, Rows: tableRows(), Construction: domain.ConstructionTable}, nil
	case n == 3 || n == 5:
		return padded(n), nil
	case n%4 == 1:
		m := (n + 1) / 2
		base, err := g.build(m)
		if err != nil {
			return nil, err
		}
		if !base.Exact() {
			return nil, fmt.Errorf("%w: doubling base of order %d is %s",
				domain.ErrConstructionFailed, m, base.Construction)
		}
		return &domain.Square{Order: n, Rows: doubleRows(base.Rows, m), Construction: domain.ConstructionDoubling}, nil
	default:
		return &domain.Square{Order: n, Rows: extendCyclic(n - 1), Construction: domain.ConstructionExtension}, nil
	}
}

// requireExact rejects a padded square unless its order has no Tuscan
// square at all.
func requireExact(sq *domain.Square) error {
	if sq.Exact() || sq.Order == 3 || sq.Order == 5 {
		return nil
	}
	return fmt.Errorf("%w: order %d produced a %s square",
		domain.ErrConstructionFailed, sq.Order, sq.Construction)
}
