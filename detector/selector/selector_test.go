package selector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/flakeorder/detector/domain"
)

func scenarioOracle() *TableOracle {
	return NewTableOracle([]domain.ClassInfo{
		{
			Name: "Cls1",
			Fields: []domain.FieldInfo{
				{Name: "cache", Type: "java.util.Map", Static: true},
			},
		},
		{
			Name: "Cls2",
			Fields: []domain.FieldInfo{
				{Name: "NAME", Type: "java.lang.String", Static: true, Final: true},
				{Name: "MAX", Type: "int", Static: true, Final: true, Primitive: true},
				{Name: "local", Type: "java.util.List"},
			},
		},
		{
			Name: "Color",
			Enum: true,
			Fields: []domain.FieldInfo{
				{Name: "RED", Type: "Color", Static: true, Final: true},
			},
		},
	})
}

func TestMutability(t *testing.T) {
	m := NewMutability(scenarioOracle(), domain.DefaultImmutableTypes())

	tests := []struct {
		class, field string
		want         bool
	}{
		{"Cls1", "cache", true},
		{"Cls2", "NAME", false},
		{"Cls2", "MAX", false},
		{"Cls2", "local", false},
		{"Color", "RED", false},
	}
	for _, tt := range tests {
		got, err := m.IsMutableStatic(tt.class, tt.field)
		if err != nil {
			t.Fatalf("IsMutableStatic(%s, %s) failed: %v", tt.class, tt.field, err)
		}
		if got != tt.want {
			t.Errorf("IsMutableStatic(%s, %s) = %v, want %v", tt.class, tt.field, got, tt.want)
		}
	}

	if _, err := m.IsMutableStatic("Cls1", "missing"); !errors.Is(err, domain.ErrFieldNotFound) {
		t.Errorf("missing field error = %v, want ErrFieldNotFound", err)
	}
	if _, err := m.IsMutableStatic("Nope", "x"); !errors.Is(err, domain.ErrClassNotFound) {
		t.Errorf("missing class error = %v, want ErrClassNotFound", err)
	}

	if ok, _ := m.HasMutableStatic("Cls1"); !ok {
		t.Error("HasMutableStatic(Cls1) = false")
	}
	if ok, _ := m.HasMutableStatic("Cls2"); ok {
		t.Error("HasMutableStatic(Cls2) = true")
	}
}

func TestMutabilityInjectedList(t *testing.T) {
	// Without the default list a final String is mutable.
	m := NewMutability(scenarioOracle(), nil)
	if ok, _ := m.IsMutableStatic("Cls2", "NAME"); !ok {
		t.Error("final String treated as immutable with an empty list")
	}
}

func TestExpandPullsInSharedMutableClass(t *testing.T) {
	forward := domain.NewRelation()
	forward.Add("T1", "Cls1")
	forward.Add("T2", "Cls1")
	forward.Add("T3", "Cls2")

	sel := New(NewMutability(scenarioOracle(), domain.DefaultImmutableTypes()))
	res, err := sel.Expand([]string{"T1"}, forward)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if len(res.Tests) != 2 || res.Tests[0] != "T1" || res.Tests[1] != "T2" {
		t.Errorf("Expand = %v, want [T1 T2]", res.Tests)
	}
}

func TestExpandSupersetOfSeed(t *testing.T) {
	forward := domain.NewRelation()
	forward.Add("T1", "Cls1", "Unknown")
	forward.Add("T2", "Cls1")
	forward.Add("T3", "Cls2")
	forward.Add("T4", "Cls2", "Cls1")

	sel := New(NewMutability(scenarioOracle(), domain.DefaultImmutableTypes()))
	seed := []string{"T3", "T1", "Orphan"}
	res, err := sel.Expand(seed, forward)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	for i, s := range seed {
		if res.Tests[i] != s {
			t.Errorf("Tests[%d] = %q, want seed %q", i, res.Tests[i], s)
		}
	}
	want := []string{"T3", "T1", "Orphan", "T2", "T4"}
	if len(res.Tests) != len(want) {
		t.Fatalf("Tests = %v, want %v", res.Tests, want)
	}
	for i := range want {
		if res.Tests[i] != want[i] {
			t.Errorf("Tests = %v, want %v", res.Tests, want)
			break
		}
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "Unknown" {
		t.Errorf("Skipped = %v, want [Unknown]", res.Skipped)
	}
	if len(res.Classes) != 3 {
		t.Errorf("Classes = %v, want 3 processed classes", res.Classes)
	}
}

type countingOracle struct {
	inner MutabilityOracle
	calls int
}

func (o *countingOracle) Class(name string) (domain.ClassInfo, error) {
	o.calls++
	return o.inner.Class(name)
}

func TestCachedOracle(t *testing.T) {
	inner := &countingOracle{inner: scenarioOracle()}
	cached, err := NewCachedOracle(inner, 2)
	if err != nil {
		t.Fatalf("NewCachedOracle failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := cached.Class("Cls1"); err != nil {
			t.Fatalf("Class failed: %v", err)
		}
		if _, err := cached.Class("Missing"); !errors.Is(err, domain.ErrClassNotFound) {
			t.Fatalf("Class(Missing) error = %v", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
	if cached.Len() != 2 {
		t.Errorf("Len = %d, want 2", cached.Len())
	}
}

func TestTableOracleMerge(t *testing.T) {
	o := NewTableOracle(nil)
	o.Put(domain.ClassInfo{Name: "A", Fields: []domain.FieldInfo{{Name: "x", Static: true}}})
	o.Put(domain.ClassInfo{Name: "A", Fields: []domain.FieldInfo{{Name: "x", Static: true, Final: true}, {Name: "y"}}})
	c, err := o.Class("A")
	if err != nil {
		t.Fatalf("Class failed: %v", err)
	}
	if len(c.Fields) != 2 {
		t.Fatalf("Fields = %v, want 2", c.Fields)
	}
	if f, _ := c.Field("x"); !f.Final {
		t.Error("later declaration did not win")
	}
}

type memChecksums struct {
	sums map[string]string
}

func (m *memChecksums) LoadChecksums(ctx context.Context) (map[string]string, error) {
	if m.sums == nil {
		return nil, domain.ErrNotFound
	}
	return m.sums, nil
}

func (m *memChecksums) SaveChecksums(ctx context.Context, sums map[string]string) error {
	m.sums = sums
	return nil
}

func TestGateChanged(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	if err := os.WriteFile(jar, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.jar")

	store := &memChecksums{}
	gate := NewGate(store)
	classpath := []string{jar, missing}

	changed, err := gate.Changed(ctx, classpath)
	if err != nil {
		t.Fatalf("Changed failed: %v", err)
	}
	if !changed {
		t.Error("first run not reported as changed")
	}
	if store.sums[missing] != UnreadableChecksum {
		t.Errorf("missing entry checksum = %q, want -1", store.sums[missing])
	}

	changed, err = gate.Changed(ctx, classpath)
	if err != nil {
		t.Fatalf("Changed failed: %v", err)
	}
	if changed {
		t.Error("unchanged classpath reported as changed")
	}

	if err := os.WriteFile(jar, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if changed, _ = gate.Changed(ctx, classpath); !changed {
		t.Error("modified jar not detected")
	}

	if changed, _ = gate.Changed(ctx, []string{jar}); !changed {
		t.Error("removed entry not detected")
	}
}

func TestChecksumStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, b := Checksum(path), Checksum(path)
	if a != b || len(a) != 64 {
		t.Errorf("Checksum = %q, %q", a, b)
	}
}
