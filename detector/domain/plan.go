package domain

// Plan is the output of a planning run.
type Plan struct {
	// RunID identifies the run record.
	RunID string

	// SelectAll is true when the full universe was treated as affected.
	SelectAll bool

	// UniverseSize is the number of tests after exclusion.
	UniverseSize int

	// Affected are the tests selected for re-examination.
	Affected []string

	// Units are the identifiers permuted by the square.
	Units []string

	// RequiredPairs is the number of ordered pairs that must be exercised.
	RequiredPairs int

	// Schedules are the selected execution orders.
	Schedules []Schedule

	// Remaining lists required pairs no schedule covers.
	Remaining []Pair

	// Incomplete is true when Remaining is non-empty.
	Incomplete bool

	Construction Construction
	SquareOrder  int
}

// Status returns the terminal run status implied by the plan.
func (p *Plan) Status() RunStatus {
	if p.Incomplete {
		return RunIncomplete
	}
	return RunComplete
}
