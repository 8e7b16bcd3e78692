package domain

import "sort"

// Relation maps a key (test or class) to the set of keys it depends on.
// It is never assumed symmetric; the reverse view is computed.
type Relation map[string]map[string]struct{}

// NewRelation creates an empty relation.
func NewRelation() Relation {
	return make(Relation)
}

// Add records key -> values. Calling Add with no values still records the key.
func (r Relation) Add(key string, values ...string) {
	deps, ok := r[key]
	if !ok {
		deps = make(map[string]struct{}, len(values))
		r[key] = deps
	}
	for _, v := range values {
		deps[v] = struct{}{}
	}
}

// Has reports whether key -> value is present.
func (r Relation) Has(key, value string) bool {
	_, ok := r[key][value]
	return ok
}

// Keys returns the keys in sorted order.
func (r Relation) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the values of key in sorted order.
func (r Relation) Values(key string) []string {
	deps := r[key]
	values := make([]string, 0, len(deps))
	for v := range deps {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// EdgeCount returns the total number of key -> value edges.
func (r Relation) EdgeCount() int {
	n := 0
	for _, deps := range r {
		n += len(deps)
	}
	return n
}

// Clone returns a deep copy.
func (r Relation) Clone() Relation {
	out := make(Relation, len(r))
	for k, deps := range r {
		cp := make(map[string]struct{}, len(deps))
		for v := range deps {
			cp[v] = struct{}{}
		}
		out[k] = cp
	}
	return out
}

// Equal reports whether both relations hold the same keys and edges.
func (r Relation) Equal(other Relation) bool {
	if len(r) != len(other) {
		return false
	}
	for k, deps := range r {
		otherDeps, ok := other[k]
		if !ok || len(deps) != len(otherDeps) {
			return false
		}
		for v := range deps {
			if _, ok := otherDeps[v]; !ok {
				return false
			}
		}
	}
	return true
}
