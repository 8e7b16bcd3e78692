// Package selector picks the tests that must be re-examined after a change.
package selector

import (
	"errors"
	"log"
	"sort"

	"github.com/example/flakeorder/detector/closure"
	"github.com/example/flakeorder/detector/domain"
)

// StaticClassifier reports whether a class holds shared mutable state.
type StaticClassifier interface {
	HasMutableStatic(class string) (bool, error)
}

// Result is the outcome of an expansion.
type Result struct {
	// Tests is the seed followed by the sorted expansion.
	Tests []string

	// Added lists tests pulled in beyond the seed, sorted.
	Added []string

	// Classes lists the classes that were examined, in processing order.
	Classes []string

	// Skipped lists classes the classifier could not resolve.
	Skipped []string
}

// Selector expands a set of tests through the classes they depend on.
type Selector struct {
	classifier StaticClassifier
}

// New creates a Selector.
func New(classifier StaticClassifier) *Selector {
	return &Selector{classifier: classifier}
}

// Expand returns seed plus every test that depends on a class with a
// mutable static field that some seed test also depends on. forward maps
// tests to the classes they depend on.
func (s *Selector) Expand(seed []string, forward domain.Relation) (Result, error) {
	c := closure.New(forward)

	var res Result
	inSeed := make(map[string]bool, len(seed))
	for _, t := range seed {
		inSeed[t] = true
	}
	processed := make(map[string]bool)
	added := make(map[string]bool)

	for _, test := range seed {
		for _, class := range c.Forward(test) {
			if processed[class] {
				continue
			}
			processed[class] = true
			res.Classes = append(res.Classes, class)

			mutable, err := s.classifier.HasMutableStatic(class)
			if err != nil {
				if errors.Is(err, domain.ErrClassNotFound) {
					log.Printf("selector: skipping class %s: %v", class, err)
					res.Skipped = append(res.Skipped, class)
					continue
				}
				return Result{}, err
			}
			if !mutable {
				continue
			}
			for _, dependent := range c.Reverse(class) {
				if !inSeed[dependent] {
					added[dependent] = true
				}
			}
		}
	}

	res.Added = make([]string, 0, len(added))
	for t := range added {
		res.Added = append(res.Added, t)
	}
	sort.Strings(res.Added)

	res.Tests = make([]string, 0, len(seed)+len(res.Added))
	res.Tests = append(res.Tests, domain.Dedupe(seed)...)
	res.Tests = append(res.Tests, res.Added...)
	return res, nil
}
