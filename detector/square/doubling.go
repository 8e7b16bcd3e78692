package square

// doubleRows builds a Tuscan square of order n = 2m-1 from one of odd
// order m.
//
// The 2m symbols 0..2m-1 form the complete directed graph K*_{2m}, and
// symbol 2m-1 acts as the sentinel that closes each row into a cycle.
// Every base row p yields the cycle p followed by reverse(p) shifted by m.
// Those m cycles cover all arcs inside each half plus the arcs between
// mirrored symbols. The m-1 cross cycles alternate halves and cover the
// remaining arcs between them. Rotating each cycle to end at the sentinel
// and dropping it gives the rows.
func doubleRows(base [][]int, m int) [][]int {
	n := 2*m - 1
	cycles := make([][]int, 0, n)

	for _, p := range base {
		c := make([]int, 0, 2*m)
		c = append(c, p...)
		for i := len(p) - 1; i >= 0; i-- {
			c = append(c, m+p[i])
		}
		cycles = append(cycles, c)
	}

	for s := 1; s < m; s++ {
		t := 1
		if s != 1 {
			t = mod(1-s, m)
		}
		c := make([]int, 0, 2*m)
		a := 0
		for k := 0; k < m; k++ {
			c = append(c, a)
			b := (a + s) % m
			c = append(c, m+b)
			a = (b + t) % m
		}
		cycles = append(cycles, c)
	}

	rows := make([][]int, len(cycles))
	for i, c := range cycles {
		rows[i] = openAt(c, n)
	}
	return rows
}

// openAt rotates cycle so that sentinel is last and returns the cycle
// without it.
func openAt(cycle []int, sentinel int) []int {
	at := 0
	for i, v := range cycle {
		if v == sentinel {
			at = i
			break
		}
	}
	row := make([]int, 0, len(cycle)-1)
	row = append(row, cycle[at+1:]...)
	return append(row, cycle[:at]...)
}

func mod(a, m int) int {
	a %= m
	if a < 0 {
		a += m
	}
	return a
}
