package depfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flakeorder/detector/domain"
)

func TestParseRelationSkipsMalformed(t *testing.T) {
	in := strings.Join([]string{
		"com.foo.Bar",
		"",
		"T1,Cls1,Cls2",
		"T2, Cls1 ,",
		"T3,",
		",Cls9",
	}, "\n")

	rel, err := ParseRelation(strings.NewReader(in))
	require.NoError(t, err)

	_, ok := rel["com.foo.Bar"]
	assert.False(t, ok, "comma-less line produced a key")
	assert.Equal(t, []string{"Cls1", "Cls2"}, rel.Values("T1"))
	assert.Equal(t, []string{"Cls1"}, rel.Values("T2"))
	_, ok = rel["T3"]
	assert.True(t, ok, "key with trailing comma not recorded")
	assert.Empty(t, rel.Values("T3"))
	assert.Len(t, rel, 3)
}

func TestReadListSkipsOversizedLines(t *testing.T) {
	prev := maxLineSize
	maxLineSize = 8
	defer func() { maxLineSize = prev }()

	in := "A.t1\n" + strings.Repeat("x", 5000) + "\nB.t2\n12345678\n123456789\nC.t3"
	got, err := ReadList(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"A.t1", "B.t2", "12345678", "C.t3"}, got)
}

func TestParseAccesses(t *testing.T) {
	in := "A.t1,Shared.counter\nbroken\nA.t2,nodot\nB.t1 , Shared.counter\n"
	got, err := ParseAccesses(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []domain.FieldAccess{
		{Test: "A.t1", Field: "Shared.counter"},
		{Test: "B.t1", Field: "Shared.counter"},
	}, got)
}

func TestParseFields(t *testing.T) {
	in := strings.Join([]string{
		"com.Foo,cache,java.util.Map,static",
		"com.Foo,MAX,int,static final",
		"com.Color,RED,com.Color,static final enum",
		"short,line",
	}, "\n")
	classes, err := ParseFields(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, classes, 2)

	foo := classes[0]
	assert.Equal(t, "com.Foo", foo.Name)
	assert.False(t, foo.Enum)
	maxField, ok := foo.Field("MAX")
	require.True(t, ok)
	assert.True(t, maxField.Primitive, "int not inferred as primitive")
	assert.True(t, maxField.Final)

	assert.True(t, classes[1].Enum)
}

func TestFormatFieldRoundTrip(t *testing.T) {
	f := domain.FieldInfo{Name: "x", Type: "long", Static: true, Final: true, Primitive: true}
	line := FormatField("a.B", f, true)
	classes, err := ParseFields(strings.NewReader(line))
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.True(t, classes[0].Enum)
	assert.Equal(t, f, classes[0].Fields[0])
}

func TestWriteSchedules(t *testing.T) {
	dir := t.TempDir()
	schedules := []domain.Schedule{
		{Tests: []string{"a", "b"}},
		{Tests: []string{"b", "a"}},
		{Tests: []string{"c"}},
	}
	require.NoError(t, WriteSchedules(dir, schedules))

	got, err := ReadSchedules(dir)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"b", "a"}, {"c"}}, got)

	// A shorter run removes stale files.
	require.NoError(t, WriteSchedules(dir, schedules[:1]))
	_, err = os.Stat(filepath.Join(dir, "order-3"))
	assert.True(t, os.IsNotExist(err), "order-3 not removed")
	count, err := os.ReadFile(filepath.Join(dir, NumOrdersFile))
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(count))
}

func TestDirFacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	d := NewDir(dir)

	_, err := d.Universe(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	write(OriginalOrderFile, "A.t1\nA.t2\nA.t1\nB.t1\n")
	write(ReverseDepsFile, "Cls1,A.t1,B.t1\n")
	write(ClasspathFile, "lib/a.jar"+string(os.PathListSeparator)+"lib/b.jar\n")

	universe, err := d.Universe(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.t1", "A.t2", "B.t1"}, universe)

	deps, err := d.Dependencies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cls1"}, deps.Values("B.t1"))

	_, err = d.SelectedTests(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	write(SelectedTestsFile, "A.t2\n")
	seed, err := d.SelectedTests(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.t2"}, seed)

	cp, err := d.Classpath(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/a.jar", "lib/b.jar"}, cp)

	accesses, err := d.FieldAccesses(ctx)
	require.NoError(t, err)
	assert.Empty(t, accesses)

	// deps takes precedence over reverse-deps.
	write(DepsFile, "A.t2,Cls2\n")
	deps, err = d.Dependencies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.t2"}, deps.Keys())
}

func TestDirWriteFacts(t *testing.T) {
	ctx := context.Background()
	d := NewDir(filepath.Join(t.TempDir(), "facts"))
	deps := domain.NewRelation()
	deps.Add("p.TestA", "p")
	classes := []domain.ClassInfo{{Name: "p", Fields: []domain.FieldInfo{{Name: "counter", Type: "int", Static: true, Primitive: true}}}}
	accesses := []domain.FieldAccess{{Test: "p.TestA", Field: "p.counter"}}

	require.NoError(t, d.WriteFacts([]string{"p.TestA"}, deps, accesses, classes))

	gotDeps, err := d.Dependencies(ctx)
	require.NoError(t, err)
	assert.True(t, gotDeps.Equal(deps))
	gotAccesses, err := d.FieldAccesses(ctx)
	require.NoError(t, err)
	assert.Equal(t, accesses, gotAccesses)
	gotClasses, err := d.Classes(ctx)
	require.NoError(t, err)
	assert.Equal(t, classes, gotClasses)
}

func TestFileChecksumStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileChecksumStore(filepath.Join(t.TempDir(), ChecksumsFile))

	_, err := store.LoadChecksums(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sums := map[string]string{"/lib/a,b.jar": "abc", "/lib/c.jar": "-1"}
	require.NoError(t, store.SaveChecksums(ctx, sums))
	got, err := store.LoadChecksums(ctx)
	require.NoError(t, err)
	assert.Equal(t, sums, got)
}
