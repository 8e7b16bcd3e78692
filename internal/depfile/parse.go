// Package depfile reads and writes the line-oriented artifact files.
package depfile

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/example/flakeorder/detector/domain"
)

// javaPrimitives are type names treated as primitive even when the
// modifiers column does not say so.
var javaPrimitives = map[string]bool{
	"boolean": true,
	"byte":    true,
	"char":    true,
	"short":   true,
	"int":     true,
	"long":    true,
	"float":   true,
	"double":  true,
}

// maxLineSize bounds a single artifact line. Longer lines are skipped
// rather than failing the whole file.
var maxLineSize = 16 * 1024 * 1024

func eachLine(r io.Reader, fn func(line string)) error {
	br := bufio.NewReader(r)
	var buf []byte
	oversized := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read lines: %w", err)
		}
		if !oversized && len(buf)+len(chunk) > maxLineSize {
			oversized = true
			buf = buf[:0]
		}
		if !oversized {
			buf = append(buf, chunk...)
		}
		if isPrefix {
			continue
		}
		if oversized {
			log.Printf("depfile: skipping line longer than %d bytes", maxLineSize)
		} else if line := strings.TrimSpace(string(buf)); line != "" {
			fn(line)
		}
		buf = buf[:0]
		oversized = false
	}
}

// ReadList returns the non-blank trimmed lines of r.
func ReadList(r io.Reader) ([]string, error) {
	var items []string
	err := eachLine(r, func(line string) {
		items = append(items, line)
	})
	return items, err
}

// ParseRelation reads key,v1,v2,... lines. Lines without a comma are
// skipped. Empty values are dropped, so "key," records key with no values.
func ParseRelation(r io.Reader) (domain.Relation, error) {
	rel := domain.NewRelation()
	err := eachLine(r, func(line string) {
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return
		}
		values := make([]string, 0, len(parts)-1)
		for _, v := range parts[1:] {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		rel.Add(key, values...)
	})
	return rel, err
}

// ParseAccesses reads test,field lines in order. Lines without a comma
// or whose field has no class part are skipped.
func ParseAccesses(r io.Reader) ([]domain.FieldAccess, error) {
	var accesses []domain.FieldAccess
	err := eachLine(r, func(line string) {
		test, field, ok := strings.Cut(line, ",")
		if !ok {
			return
		}
		test, field = strings.TrimSpace(test), strings.TrimSpace(field)
		if test == "" {
			return
		}
		if _, _, ok := domain.SplitField(field); !ok {
			return
		}
		accesses = append(accesses, domain.FieldAccess{Test: test, Field: field})
	})
	return accesses, err
}

// ParseFields reads class,field,type,modifiers lines into class metadata.
// Modifiers are space separated from static, final, enum and primitive.
// The enum modifier marks the declaring class. Lines with fewer than
// three columns are skipped.
func ParseFields(r io.Reader) ([]domain.ClassInfo, error) {
	var order []string
	classes := make(map[string]*domain.ClassInfo)

	err := eachLine(r, func(line string) {
		cols := strings.Split(line, ",")
		if len(cols) < 3 {
			return
		}
		className := strings.TrimSpace(cols[0])
		fieldName := strings.TrimSpace(cols[1])
		typeName := strings.TrimSpace(cols[2])
		if className == "" || fieldName == "" {
			return
		}

		c, ok := classes[className]
		if !ok {
			c = &domain.ClassInfo{Name: className}
			classes[className] = c
			order = append(order, className)
		}

		f := domain.FieldInfo{Name: fieldName, Type: typeName, Primitive: javaPrimitives[typeName]}
		if len(cols) > 3 {
			for _, mod := range strings.Fields(cols[3]) {
				switch mod {
				case "static":
					f.Static = true
				case "final":
					f.Final = true
				case "primitive":
					f.Primitive = true
				case "enum":
					c.Enum = true
				}
			}
		}
		c.Fields = append(c.Fields, f)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.ClassInfo, 0, len(order))
	for _, name := range order {
		out = append(out, *classes[name])
	}
	return out, nil
}

// FormatField renders one fields line.
func FormatField(class string, f domain.FieldInfo, enum bool) string {
	var mods []string
	if f.Static {
		mods = append(mods, "static")
	}
	if f.Final {
		mods = append(mods, "final")
	}
	if f.Primitive {
		mods = append(mods, "primitive")
	}
	if enum {
		mods = append(mods, "enum")
	}
	return strings.Join([]string{class, f.Name, f.Type, strings.Join(mods, " ")}, ",")
}

// FormatRelation renders a relation as sorted key,v1,v2 lines.
func FormatRelation(rel domain.Relation) []string {
	lines := make([]string, 0, len(rel))
	for _, k := range rel.Keys() {
		lines = append(lines, strings.Join(append([]string{k}, rel.Values(k)...), ","))
	}
	return lines
}
