package schedule

import (
	"fmt"

	"github.com/example/flakeorder/detector/domain"
)

// Materialize maps every square row onto units. Symbol i stands for
// units[i]. A unit expands to testsByUnit[unit] in order, or to itself
// when testsByUnit has no entry for it.
func Materialize(sq *domain.Square, units []string, testsByUnit map[string][]string) ([]domain.Schedule, error) {
	if len(units) != sq.Order {
		return nil, fmt.Errorf("square of order %d cannot order %d units", sq.Order, len(units))
	}

	schedules := make([]domain.Schedule, len(sq.Rows))
	for r, row := range sq.Rows {
		s := domain.Schedule{
			Row:   r,
			Units: make([]string, len(row)),
		}
		for i, sym := range row {
			unit := units[sym]
			s.Units[i] = unit
			if tests, ok := testsByUnit[unit]; ok {
				s.Tests = append(s.Tests, tests...)
			} else {
				s.Tests = append(s.Tests, unit)
			}
		}
		schedules[r] = s
	}
	return schedules, nil
}
