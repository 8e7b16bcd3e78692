// Package closure keeps a dependency relation together with its inverse.
package closure

import "github.com/example/flakeorder/detector/domain"

// Invert returns the reverse of forward: v -> k for every k -> v.
// Keys without edges do not appear in the result.
func Invert(forward domain.Relation) domain.Relation {
	reverse := domain.NewRelation()
	for k, deps := range forward {
		for v := range deps {
			reverse.Add(v, k)
		}
	}
	return reverse
}

// Closure holds a relation and its precomputed reverse view.
type Closure struct {
	forward domain.Relation
	reverse domain.Relation
}

// New builds a closure from a test -> class relation.
func New(forward domain.Relation) *Closure {
	return &Closure{
		forward: forward.Clone(),
		reverse: Invert(forward),
	}
}

// FromReverse builds a closure from facts supplied class -> test.
func FromReverse(reverse domain.Relation) *Closure {
	return &Closure{
		forward: Invert(reverse),
		reverse: reverse.Clone(),
	}
}

// Forward returns the sorted dependencies of key.
func (c *Closure) Forward(key string) []string {
	return c.forward.Values(key)
}

// Reverse returns the sorted keys that depend on value.
func (c *Closure) Reverse(value string) []string {
	return c.reverse.Values(value)
}

// ForwardRelation returns the forward view. Callers must not modify it.
func (c *Closure) ForwardRelation() domain.Relation {
	return c.forward
}

// Consistent reports whether the two views describe the same edges.
func (c *Closure) Consistent() bool {
	for k, deps := range c.forward {
		for v := range deps {
			if !c.reverse.Has(v, k) {
				return false
			}
		}
	}
	for v, keys := range c.reverse {
		for k := range keys {
			if !c.forward.Has(k, v) {
				return false
			}
		}
	}
	return true
}
