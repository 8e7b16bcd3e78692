package domain

import (
	"fmt"
	"sort"
)

// Pair is an ordered pair of tests or classes. It requires that Left
// immediately precedes Right in at least one schedule.
type Pair struct {
	Left  string
	Right string
}

// NewPair creates a pair, rejecting empty or equal sides.
func NewPair(left, right string) (Pair, error) {
	p := Pair{Left: left, Right: right}
	if err := p.Validate(); err != nil {
		return Pair{}, err
	}
	return p, nil
}

// Validate checks the pair invariant.
func (p Pair) Validate() error {
	if p.Left == "" || p.Right == "" {
		return fmt.Errorf("%w: empty side in (%q, %q)", ErrInvalidPair, p.Left, p.Right)
	}
	if p.Left == p.Right {
		return fmt.Errorf("%w: %q paired with itself", ErrInvalidPair, p.Left)
	}
	return nil
}

// Reverse returns the pair in the opposite direction.
func (p Pair) Reverse() Pair {
	return Pair{Left: p.Right, Right: p.Left}
}

func (p Pair) String() string {
	return p.Left + "," + p.Right
}

// PairSet is a set of pairs.
type PairSet map[Pair]struct{}

// NewPairSet creates a set holding the given pairs.
func NewPairSet(pairs ...Pair) PairSet {
	s := make(PairSet, len(pairs))
	for _, p := range pairs {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts a pair.
func (s PairSet) Add(p Pair) {
	s[p] = struct{}{}
}

// Has reports whether the pair is in the set.
func (s PairSet) Has(p Pair) bool {
	_, ok := s[p]
	return ok
}

// Len returns the number of pairs.
func (s PairSet) Len() int {
	return len(s)
}

// Sorted returns the pairs ordered by Left, then Right.
func (s PairSet) Sorted() []Pair {
	pairs := make([]Pair, 0, len(s))
	for p := range s {
		pairs = append(pairs, p)
	}
	SortPairs(pairs)
	return pairs
}

// SortPairs orders pairs by Left, then Right.
func SortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Left != pairs[j].Left {
			return pairs[i].Left < pairs[j].Left
		}
		return pairs[i].Right < pairs[j].Right
	})
}

// AllPairs returns every ordered pair of distinct units.
func AllPairs(units []string) []Pair {
	pairs := make([]Pair, 0, len(units)*len(units))
	for _, a := range units {
		for _, b := range units {
			if a != b {
				pairs = append(pairs, Pair{Left: a, Right: b})
			}
		}
	}
	return pairs
}

// AdjacentPairs returns the pairs formed by consecutive items of a sequence.
func AdjacentPairs(seq []string) []Pair {
	if len(seq) < 2 {
		return nil
	}
	pairs := make([]Pair, 0, len(seq)-1)
	for i := 0; i+1 < len(seq); i++ {
		pairs = append(pairs, Pair{Left: seq[i], Right: seq[i+1]})
	}
	return pairs
}
