package a

import "testing"

var counter int // want `mutable package variable counter is shared by 2 tests: TestIncrement, TestRead`

var limit = 10

var cache = map[string]int{} // want `mutable package variable cache is shared by 2 tests: TestFill, TestIncrement`

var table []string

var hits tally // want `mutable package variable hits is shared by 2 tests: TestHitsA, TestHitsB`

var lonely int

func init() {
	table = append(table, "x")
}

type tally struct{ n int }

func (t *tally) add() { t.n++ }

func bump() {
	counter++
	cache["n"] = counter
}

func TestIncrement(t *testing.T) {
	bump()
	_ = limit
}

func TestRead(t *testing.T) {
	if counter > limit {
		t.Fatal("too many")
	}
}

func TestFill(t *testing.T) {
	cache["x"] = 1
}

func TestTableOne(t *testing.T) {
	_ = table[0]
}

func TestTableTwo(t *testing.T) {
	_ = len(table)
}

func TestHitsA(t *testing.T) {
	hits.add()
}

func TestHitsB(t *testing.T) {
	hits.add()
}

func TestLonely(t *testing.T) {
	lonely = 1
}

func TestMain(m *testing.M) {}
