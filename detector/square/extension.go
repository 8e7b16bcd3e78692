package square

// extendCyclic builds a Tuscan square of odd order k+1 from the cyclic
// square of even order k (k = 2 mod 4) by threading a new symbol w = k
// through it.
//
// P is a Hamiltonian path over Z_k that starts at 0 and takes each of its
// k-1 arcs from a different row among rows 1..k-1. Row 0 gets w prepended.
// Every other row has w inserted inside the arc P took from it, which
// removes that arc and adds the arcs into and out of w. The extra row is P
// followed by w.
func extendCyclic(k int) [][]int {
	return threadSymbol(k, cyclicSeed(k), rainbowPath(k))
}

// smallPaths holds P for the orders below the reach of the pair
// construction.
var smallPaths = map[int][]int{
	6:  {0, 1, 2, 4, 5, 3},
	10: {0, 1, 2, 4, 7, 9, 8, 6, 3, 5},
	14: {0, 1, 2, 3, 4, 5, 6, 8, 11, 12, 13, 9, 7, 10},
	18: {0, 6, 4, 2, 16, 10, 12, 14, 8, 11, 5, 7, 9, 3, 17, 15, 13, 1},
	22: {0, 20, 18, 16, 14, 6, 8, 10, 12, 2, 4, 19, 21, 11, 13, 15, 17, 9, 7, 5, 3, 1},
}

// rainbowPath returns P for the cyclic square of order k.
//
// For h = k/2 >= 13, P is symmetric: its first half is 2x for x along
// halfPath(h) and its second half is 1-v for v along the first half
// reversed. The half path is laid out so that all k-1 arcs of P fall in
// distinct rows other than row 0.
func rainbowPath(k int) []int {
	if p, ok := smallPaths[k]; ok {
		return append([]int(nil), p...)
	}
	half := halfPath(k / 2)
	path := make([]int, 0, k)
	for _, x := range half {
		path = append(path, 2*x)
	}
	for i := len(half) - 1; i >= 0; i-- {
		path = append(path, mod(1-2*half[i], k))
	}
	return path
}

type segmentKind int

const (
	segClass segmentKind = iota
	segLow
	segHigh
)

type segment struct {
	kind  segmentKind
	index int
}

// halfTemplate lays out the symbols 0..h-1 for one residue of h mod 10.
// Symbols 1..low and h-high..h-1 are singletons. The symbols between them
// form consecutive pairs, and pair j belongs to class j mod 5. A class
// segment walks its pairs in increasing order.
type halfTemplate struct {
	low, high int
	order     []segment
}

func class(i int) segment { return segment{segClass, i} }
func low(i int) segment   { return segment{segLow, i} }
func high(i int) segment  { return segment{segHigh, i} }

var halfTemplates = map[int]halfTemplate{
	1: {4, 0, []segment{class(2), low(3), class(4), low(1), class(3), low(2), class(1), class(0), low(0)}},
	3: {1, 3, []segment{class(2), class(1), high(1), class(4), high(2), class(0), high(0), class(3), low(0)}},
	5: {1, 5, []segment{class(4), high(4), class(1), high(0), class(3), high(3), class(0), high(2), high(1), class(2), low(0)}},
	7: {1, 3, []segment{class(2), high(0), class(3), high(1), class(4), class(1), high(2), class(0), low(0)}},
	9: {3, 3, []segment{class(2), class(0), high(0), low(2), class(4), low(1), class(3), high(1), class(1), high(2), low(0)}},
}

// halfPath returns a path over 0..h-1 for odd h >= 13. It starts at 0 and
// ends in 1..(h-1)/2.
func halfPath(h int) []int {
	t := halfTemplates[h%10]
	lo := 1 + t.low
	pairs := (h - t.high - lo) / 2

	path := make([]int, 0, h)
	path = append(path, 0)
	for _, s := range t.order {
		switch s.kind {
		case segClass:
			for j := s.index; j < pairs; j += 5 {
				path = append(path, lo+2*j, lo+2*j+1)
			}
		case segLow:
			path = append(path, 1+s.index)
		case segHigh:
			path = append(path, h-1-s.index)
		}
	}
	return path
}

// threadSymbol inserts w = k into the cyclic rows along the arcs of path
// and appends the extra row.
func threadSymbol(k int, seed, path []int) [][]int {
	w := k
	at := make([]int, k)
	for i := 0; i+1 < k; i++ {
		at[mod(seed[i+1]-seed[i], k)] = i
	}

	// Row r holds the arc seed[i]+r -> seed[i+1]+r at position i.
	cutAt := make(map[int]int, k-1)
	for i := 0; i+1 < len(path); i++ {
		pos := at[mod(path[i+1]-path[i], k)]
		cutAt[mod(path[i]-seed[pos], k)] = pos
	}

	rows := make([][]int, 0, k+1)
	for r := 0; r < k; r++ {
		base := make([]int, k)
		for i, s := range seed {
			base[i] = (s + r) % k
		}
		row := make([]int, 0, k+1)
		pos, cut := cutAt[r]
		if !cut {
			row = append(row, w)
			row = append(row, base...)
		} else {
			row = append(row, base[:pos+1]...)
			row = append(row, w)
			row = append(row, base[pos+1:]...)
		}
		rows = append(rows, row)
	}

	extra := make([]int, 0, k+1)
	extra = append(extra, path...)
	rows = append(rows, append(extra, w))
	return rows
}
