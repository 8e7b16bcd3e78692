package domain

// Schedule is one test execution order.
type Schedule struct {
	// Row is the index of the square row this schedule was built from.
	Row int

	// Units are the permuted identifiers, tests or classes.
	Units []string

	// Tests is the concrete execution order. Each unit expands to its
	// tests in original order.
	Tests []string
}

// UnitPairs returns the distinct adjacent unit pairs of the schedule.
func (s Schedule) UnitPairs() []Pair {
	adj := AdjacentPairs(s.Units)
	if len(adj) == 0 {
		return nil
	}
	seen := make(map[Pair]bool, len(adj))
	out := adj[:0:0]
	for _, p := range adj {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
