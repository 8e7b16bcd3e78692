package domain

// FieldInfo describes a field declared by a class.
type FieldInfo struct {
	Name string

	// Type is the fully qualified type name of the field.
	Type string

	Static    bool
	Final     bool
	Primitive bool
}

// ClassInfo describes a class as seen by a mutability oracle.
type ClassInfo struct {
	Name string

	// Enum is true when the class is an enum type. Final fields of an
	// enum are treated as immutable.
	Enum bool

	Fields []FieldInfo
}

// Field looks up a declared field by name.
func (c ClassInfo) Field(name string) (FieldInfo, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// StaticFields returns the static fields in declaration order.
func (c ClassInfo) StaticFields() []FieldInfo {
	var out []FieldInfo
	for _, f := range c.Fields {
		if f.Static {
			out = append(out, f)
		}
	}
	return out
}
