// Package schedule chooses which square rows to run.
package schedule

import (
	"container/heap"

	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/detector/pairs"
)

// Result is the outcome of a greedy selection.
type Result struct {
	// Selected are the chosen schedules in selection order.
	Selected []domain.Schedule

	// Incomplete is true when required pairs remain uncovered.
	Incomplete bool

	// Remaining lists the uncovered pairs, sorted.
	Remaining []domain.Pair

	// Retired counts pairs covered by the selected schedules.
	Retired int
}

// Selector greedily picks the candidate schedule that covers the most
// outstanding pairs until every pair is covered or no candidate helps.
type Selector struct {
	maxSchedules int
}

// NewSelector creates a Selector. maxSchedules caps the selection; zero
// means no cap.
func NewSelector(maxSchedules int) *Selector {
	return &Selector{maxSchedules: maxSchedules}
}

// candidate is a heap entry. pos is its current heap index, or -1 once
// popped.
type candidate struct {
	index int
	score int
	pos   int
}

// candidateHeap orders by score descending, then candidate index ascending.
type candidateHeap []*candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score > h[j].score
	}
	return h[i].index < h[j].index
}

func (h candidateHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].pos = i
	h[j].pos = j
}

func (h *candidateHeap) Push(x any) {
	c := x.(*candidate)
	c.pos = len(*h)
	*h = append(*h, c)
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.pos = -1
	*h = old[0 : n-1]
	return c
}

// Select picks schedules from candidates, retiring their adjacent unit
// pairs in tracker. Each candidate is used at most once.
func (s *Selector) Select(candidates []domain.Schedule, tracker *pairs.Tracker) Result {
	entries := make([]*candidate, len(candidates))
	containing := make(map[domain.Pair][]int)
	h := make(candidateHeap, 0, len(candidates))

	for i, sched := range candidates {
		score := 0
		for _, p := range sched.UnitPairs() {
			containing[p] = append(containing[p], i)
			if tracker.Contains(p) {
				score++
			}
		}
		entries[i] = &candidate{index: i, score: score}
		h = append(h, entries[i])
		entries[i].pos = i
	}
	heap.Init(&h)

	var res Result
	for h.Len() > 0 && !tracker.IsEmpty() {
		if s.maxSchedules > 0 && len(res.Selected) >= s.maxSchedules {
			break
		}
		if h[0].score == 0 {
			break
		}
		best := heap.Pop(&h).(*candidate)
		sched := candidates[best.index]
		res.Selected = append(res.Selected, sched)

		retired := tracker.MarkCovered(sched.Units)
		res.Retired += len(retired)
		for _, p := range retired {
			for _, j := range containing[p] {
				other := entries[j]
				if other.pos < 0 {
					continue
				}
				other.score--
				heap.Fix(&h, other.pos)
			}
		}
	}

	res.Remaining = tracker.Remaining()
	res.Incomplete = len(res.Remaining) > 0
	return res
}
