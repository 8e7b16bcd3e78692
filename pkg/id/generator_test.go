package id

import (
	"sort"
	"testing"
)

func TestGenerateUniqueAndOrdered(t *testing.T) {
	ids := make([]string, 100)
	seen := make(map[string]bool)
	for i := range ids {
		ids[i] = Generate()
		if !Valid(ids[i]) {
			t.Fatalf("Generate() = %q, not a UUID", ids[i])
		}
		if seen[ids[i]] {
			t.Fatalf("duplicate id %q", ids[i])
		}
		seen[ids[i]] = true
	}
	if !sort.StringsAreSorted(ids) {
		t.Error("ids not in creation order")
	}
}

func TestShort(t *testing.T) {
	if got := Short("0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"); got != "2e3f4a5b" {
		t.Errorf("Short = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short(abc) = %q", got)
	}
}
