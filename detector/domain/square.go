package domain

// Construction identifies how a square was built.
type Construction int

const (
	ConstructionUnknown   Construction = iota
	ConstructionCyclic                 // Williams rows, even orders
	ConstructionTable                  // fixed table, order 9
	ConstructionDoubling               // order 2m-1 from odd order m
	ConstructionExtension              // order k+1 from cyclic order k
	ConstructionPadded                 // order n+1 with one symbol removed
)

func (c Construction) String() string {
	switch c {
	case ConstructionCyclic:
		return "cyclic"
	case ConstructionTable:
		return "table"
	case ConstructionDoubling:
		return "doubling"
	case ConstructionExtension:
		return "extension"
	case ConstructionPadded:
		return "padded"
	default:
		return "unknown"
	}
}

// ParseConstruction is the inverse of Construction.String.
func ParseConstruction(s string) Construction {
	switch s {
	case "cyclic":
		return ConstructionCyclic
	case "table":
		return ConstructionTable
	case "doubling":
		return ConstructionDoubling
	case "extension":
		return ConstructionExtension
	case "padded":
		return ConstructionPadded
	default:
		return ConstructionUnknown
	}
}

// Square is a row-complete arrangement of the symbols 0..Order-1.
//
// Each row is a permutation of the symbols. In an exact square there are
// Order rows and every ordered pair of distinct symbols appears adjacent
// in exactly one row. A padded square has Order+1 rows and covers every
// ordered pair at least once.
type Square struct {
	Order        int
	Rows         [][]int
	Construction Construction
}

// Exact reports whether the square has the exactly-once adjacency property.
func (s *Square) Exact() bool {
	return s.Construction != ConstructionPadded
}

// Cycle returns row i followed by the sentinel symbol Order. Read
// cyclically, the result is a Hamiltonian cycle of the complete directed
// graph on Order+1 vertices.
func (s *Square) Cycle(i int) []int {
	row := s.Rows[i]
	cycle := make([]int, 0, len(row)+1)
	cycle = append(cycle, row...)
	return append(cycle, s.Order)
}

// Row returns a copy of row i.
func (s *Square) Row(i int) []int {
	return append([]int(nil), s.Rows[i]...)
}
