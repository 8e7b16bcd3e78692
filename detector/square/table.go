package square

// order9 is a Tuscan square of order 9. Neither the doubling nor the
// extension construction reaches this order.
var order9 = [9][9]int{
	{8, 0, 7, 1, 6, 2, 5, 3, 4},
	{1, 0, 2, 7, 8, 3, 6, 4, 5},
	{2, 1, 3, 0, 8, 4, 7, 5, 6},
	{3, 8, 2, 4, 1, 5, 0, 6, 7},
	{4, 3, 5, 2, 6, 1, 8, 7, 0},
	{5, 4, 8, 6, 3, 7, 2, 0, 1},
	{6, 8, 5, 7, 4, 0, 3, 1, 2},
	{7, 6, 0, 5, 8, 1, 4, 2, 3},
	{0, 4, 6, 5, 1, 7, 3, 2, 8},
}

func tableRows() [][]int {
	rows := make([][]int, len(order9))
	for i := range order9 {
		rows[i] = append([]int(nil), order9[i][:]...)
	}
	return rows
}
