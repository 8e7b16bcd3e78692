package domain

import "strings"

// ClassOf returns the test class of a test identifier: the identifier
// truncated at the last occurrence of delimiter. A test without the
// delimiter is its own class.
func ClassOf(test, delimiter string) string {
	if delimiter == "" {
		return test
	}
	idx := strings.LastIndex(test, delimiter)
	if idx <= 0 {
		return test
	}
	return test[:idx]
}

// ClassesOf returns the distinct classes of tests in first-seen order.
func ClassesOf(tests []string, delimiter string) []string {
	seen := make(map[string]bool, len(tests))
	classes := make([]string, 0, len(tests))
	for _, test := range tests {
		class := ClassOf(test, delimiter)
		if seen[class] {
			continue
		}
		seen[class] = true
		classes = append(classes, class)
	}
	return classes
}

// GroupByClass maps each class to its tests, preserving the input order
// of tests within a class.
func GroupByClass(tests []string, delimiter string) map[string][]string {
	groups := make(map[string][]string)
	for _, test := range tests {
		class := ClassOf(test, delimiter)
		groups[class] = append(groups[class], test)
	}
	return groups
}

// SplitField splits a field reference of the form <class>.<name>.
// ok is false when the reference has no class part.
func SplitField(field string) (class, name string, ok bool) {
	idx := strings.LastIndex(field, ".")
	if idx <= 0 || idx == len(field)-1 {
		return "", "", false
	}
	return field[:idx], field[idx+1:], true
}

// FieldAccess records that a test reads or writes a static field.
type FieldAccess struct {
	// Test is the accessing test identifier.
	Test string

	// Field is the accessed field as <class>.<fieldName>.
	Field string
}

// Dedupe returns items without repeats, preserving first-seen order.
func Dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
