package selector

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/flakeorder/detector/domain"
)

// MutabilityOracle resolves class metadata. Class returns ErrClassNotFound
// when the class cannot be resolved.
type MutabilityOracle interface {
	Class(name string) (domain.ClassInfo, error)
}

// TableOracle serves class metadata from an in-memory table, typically
// loaded from a fields artifact.
type TableOracle struct {
	classes map[string]domain.ClassInfo
}

// NewTableOracle creates an oracle over the given classes.
func NewTableOracle(classes []domain.ClassInfo) *TableOracle {
	o := &TableOracle{classes: make(map[string]domain.ClassInfo, len(classes))}
	for _, c := range classes {
		o.Put(c)
	}
	return o
}

// Put adds or replaces a class. Fields of an existing class with the same
// name are merged, later declarations winning.
func (o *TableOracle) Put(c domain.ClassInfo) {
	existing, ok := o.classes[c.Name]
	if !ok {
		o.classes[c.Name] = c
		return
	}
	existing.Enum = existing.Enum || c.Enum
	for _, f := range c.Fields {
		replaced := false
		for i := range existing.Fields {
			if existing.Fields[i].Name == f.Name {
				existing.Fields[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			existing.Fields = append(existing.Fields, f)
		}
	}
	o.classes[c.Name] = existing
}

// Class implements MutabilityOracle.
func (o *TableOracle) Class(name string) (domain.ClassInfo, error) {
	c, ok := o.classes[name]
	if !ok {
		return domain.ClassInfo{}, fmt.Errorf("%w: %s", domain.ErrClassNotFound, name)
	}
	return c, nil
}

// Names returns the known class names, sorted.
func (o *TableOracle) Names() []string {
	names := make([]string, 0, len(o.classes))
	for n := range o.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type cachedClass struct {
	info domain.ClassInfo
	err  error
}

// CachedOracle memoizes another oracle in a bounded LRU cache. Lookup
// failures are cached too, so an unresolvable class is only asked for once
// while it stays in the cache.
type CachedOracle struct {
	next  MutabilityOracle
	cache *lru.Cache[string, cachedClass]
}

// NewCachedOracle wraps next with a cache holding up to size classes.
func NewCachedOracle(next MutabilityOracle, size int) (*CachedOracle, error) {
	cache, err := lru.New[string, cachedClass](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create class cache: %w", err)
	}
	return &CachedOracle{next: next, cache: cache}, nil
}

// Class implements MutabilityOracle.
func (o *CachedOracle) Class(name string) (domain.ClassInfo, error) {
	if hit, ok := o.cache.Get(name); ok {
		return hit.info, hit.err
	}
	info, err := o.next.Class(name)
	o.cache.Add(name, cachedClass{info: info, err: err})
	return info, err
}

// Len returns the number of cached classes.
func (o *CachedOracle) Len() int {
	return o.cache.Len()
}
