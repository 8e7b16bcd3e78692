package pairs

import (
	"errors"
	"log"

	"github.com/example/flakeorder/detector/domain"
)

// Classifier decides whether a static field can carry state between tests.
type Classifier interface {
	IsMutableStatic(class, field string) (bool, error)
}

// Derived holds the pairs of tests that share a mutable static field.
type Derived struct {
	// Same holds pairs of tests in the same class, both directions.
	Same domain.PairSet

	// Cross holds pairs of tests in different classes, both directions.
	Cross domain.PairSet

	// TestFields maps each test to the relevant fields it touches.
	TestFields domain.Relation

	// Skipped lists fields whose class or declaration could not be resolved.
	Skipped []string
}

// Derive turns field access facts into test pairs.
//
// Each field is classified once, on its first occurrence. Fields that are
// not mutable statics are ignored for every later access. Tests that share
// a relevant field are paired in both directions, split by whether they
// belong to the same class.
func Derive(accesses []domain.FieldAccess, classifier Classifier, delimiter string) (*Derived, error) {
	d := &Derived{
		Same:       make(domain.PairSet),
		Cross:      make(domain.PairSet),
		TestFields: domain.NewRelation(),
	}

	classified := make(map[string]bool)
	relevant := make(map[string]bool)
	var fieldOrder []string
	fieldTests := make(map[string][]string)
	seenAccess := make(map[domain.FieldAccess]bool)

	for _, a := range accesses {
		if _, done := classified[a.Field]; !done {
			classified[a.Field] = true
			mutable, err := classifyField(classifier, a.Field)
			if err != nil {
				if errors.Is(err, domain.ErrClassNotFound) || errors.Is(err, domain.ErrFieldNotFound) {
					log.Printf("pairs: skipping field %s: %v", a.Field, err)
					d.Skipped = append(d.Skipped, a.Field)
					continue
				}
				return nil, err
			}
			if mutable {
				relevant[a.Field] = true
				fieldOrder = append(fieldOrder, a.Field)
			}
		}
		if !relevant[a.Field] || seenAccess[a] {
			continue
		}
		seenAccess[a] = true
		d.TestFields.Add(a.Test, a.Field)
		fieldTests[a.Field] = append(fieldTests[a.Field], a.Test)
	}

	for _, field := range fieldOrder {
		tests := fieldTests[field]
		for i, left := range tests {
			for _, right := range tests[i+1:] {
				if left == right {
					continue
				}
				target := d.Cross
				if domain.ClassOf(left, delimiter) == domain.ClassOf(right, delimiter) {
					target = d.Same
				}
				target.Add(domain.Pair{Left: left, Right: right})
				target.Add(domain.Pair{Left: right, Right: left})
			}
		}
	}
	return d, nil
}

func classifyField(classifier Classifier, field string) (bool, error) {
	class, name, ok := domain.SplitField(field)
	if !ok {
		return false, domain.ErrFieldNotFound
	}
	return classifier.IsMutableStatic(class, name)
}

// All returns the union of same-class and cross-class pairs.
func (d *Derived) All() domain.PairSet {
	all := make(domain.PairSet, len(d.Same)+len(d.Cross))
	for p := range d.Same {
		all.Add(p)
	}
	for p := range d.Cross {
		all.Add(p)
	}
	return all
}

// ClassPairs maps test pairs to pairs of their classes. Pairs within a
// single class are dropped.
func ClassPairs(pairs domain.PairSet, delimiter string) domain.PairSet {
	out := make(domain.PairSet)
	for p := range pairs {
		left := domain.ClassOf(p.Left, delimiter)
		right := domain.ClassOf(p.Right, delimiter)
		if left == right {
			continue
		}
		out.Add(domain.Pair{Left: left, Right: right})
	}
	return out
}

// Restrict keeps the pairs whose sides are both in units.
func Restrict(pairs domain.PairSet, units []string) domain.PairSet {
	in := make(map[string]bool, len(units))
	for _, u := range units {
		in[u] = true
	}
	out := make(domain.PairSet)
	for p := range pairs {
		if in[p.Left] && in[p.Right] {
			out.Add(p)
		}
	}
	return out
}
