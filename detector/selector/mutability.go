package selector

import (
	"fmt"

	"github.com/example/flakeorder/detector/domain"
)

// Mutability classifies static fields using class metadata and a list of
// types known to be immutable.
type Mutability struct {
	oracle    MutabilityOracle
	immutable map[string]bool
}

// NewMutability creates a classifier. immutableTypes lists the type names
// whose final instances cannot carry state.
func NewMutability(oracle MutabilityOracle, immutableTypes []string) *Mutability {
	m := &Mutability{
		oracle:    oracle,
		immutable: make(map[string]bool, len(immutableTypes)),
	}
	for _, t := range immutableTypes {
		m.immutable[t] = true
	}
	return m
}

// IsMutableStatic reports whether field of class is a static field that
// can carry state between tests. It returns ErrClassNotFound or
// ErrFieldNotFound when the field cannot be resolved.
func (m *Mutability) IsMutableStatic(class, field string) (bool, error) {
	info, err := m.oracle.Class(class)
	if err != nil {
		return false, err
	}
	f, ok := info.Field(field)
	if !ok {
		return false, fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, class, field)
	}
	return f.Static && !m.isImmutable(info, f), nil
}

// HasMutableStatic reports whether class declares any mutable static field.
func (m *Mutability) HasMutableStatic(class string) (bool, error) {
	info, err := m.oracle.Class(class)
	if err != nil {
		return false, err
	}
	for _, f := range info.StaticFields() {
		if !m.isImmutable(info, f) {
			return true, nil
		}
	}
	return false, nil
}

// isImmutable: a final field whose type is primitive, whose declaring class
// is an enum, or whose type is on the immutable list.
func (m *Mutability) isImmutable(class domain.ClassInfo, f domain.FieldInfo) bool {
	if !f.Final {
		return false
	}
	return f.Primitive || class.Enum || m.immutable[f.Type]
}
