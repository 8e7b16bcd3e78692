package square

import "github.com/example/flakeorder/detector/domain"

// cyclicSeed returns the zigzag sequence 0, n-1, 1, n-2, 2, ...
// For even n its successive differences are all distinct mod n.
func cyclicSeed(n int) []int {
	seed := make([]int, n)
	for i := range seed {
		if i%2 == 0 {
			seed[i] = i / 2
		} else {
			seed[i] = n - 1 - i/2
		}
	}
	return seed
}

// cyclicRows returns the n translates of the zigzag seed. For even n every
// ordered pair of distinct symbols is adjacent in exactly one row.
func cyclicRows(n int) [][]int {
	seed := cyclicSeed(n)
	rows := make([][]int, n)
	for r := range rows {
		row := make([]int, n)
		for i, s := range seed {
			row[i] = (s + r) % n
		}
		rows[r] = row
	}
	return rows
}

// padded builds n+1 rows over n symbols (n odd) by taking the cyclic
// square of order n+1 and deleting symbol n. Every ordered pair is still
// covered at least once.
func padded(n int) *domain.Square {
	full := cyclicRows(n + 1)
	rows := make([][]int, len(full))
	for r, row := range full {
		out := make([]int, 0, n)
		for _, v := range row {
			if v != n {
				out = append(out, v)
			}
		}
		rows[r] = out
	}
	return &domain.Square{Order: n, Rows: rows, Construction: domain.ConstructionPadded}
}
