// Package pairs tracks the ordered test pairs a run must exercise.
package pairs

import (
	"github.com/example/flakeorder/detector/domain"
)

// Tracker holds the required ordered pairs and removes them as schedules
// cover them. A retired pair is never re-added within the same tracker.
type Tracker struct {
	remaining domain.PairSet
	retired   domain.PairSet
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		remaining: make(domain.PairSet),
		retired:   make(domain.PairSet),
	}
}

// Register adds pairs to the required set. Pairs already retired are
// ignored. An invalid pair aborts the call with ErrInvalidPair; pairs
// before it stay registered.
func (t *Tracker) Register(pairs ...domain.Pair) error {
	for _, p := range pairs {
		if err := p.Validate(); err != nil {
			return err
		}
		if t.retired.Has(p) {
			continue
		}
		t.remaining.Add(p)
	}
	return nil
}

// MarkCovered removes every adjacent pair of schedule from the required
// set and returns the pairs it retired, in schedule order.
func (t *Tracker) MarkCovered(schedule []string) []domain.Pair {
	var retired []domain.Pair
	for _, p := range domain.AdjacentPairs(schedule) {
		if !t.remaining.Has(p) {
			continue
		}
		delete(t.remaining, p)
		t.retired.Add(p)
		retired = append(retired, p)
	}
	return retired
}

// Remaining returns the outstanding pairs in sorted order.
func (t *Tracker) Remaining() []domain.Pair {
	return t.remaining.Sorted()
}

// Contains reports whether p is still outstanding.
func (t *Tracker) Contains(p domain.Pair) bool {
	return t.remaining.Has(p)
}

// IsEmpty reports whether every required pair has been covered.
func (t *Tracker) IsEmpty() bool {
	return len(t.remaining) == 0
}

// Len returns the number of outstanding pairs.
func (t *Tracker) Len() int {
	return len(t.remaining)
}
