package depfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/flakeorder/detector/closure"
	"github.com/example/flakeorder/detector/domain"
)

// Artifact file names inside a Dir.
const (
	OriginalOrderFile = "original-order"
	SelectedTestsFile = "selected-tests"
	DepsFile          = "deps"
	ReverseDepsFile   = "reverse-deps"
	FieldAccessesFile = "field-accesses"
	FieldsFile        = "fields"
	ClasspathFile     = "classpath"
	ChecksumsFile     = "jar-checksums"
	AffectedFile      = "affected-tests"
)

// Dir reads facts from and writes schedules to an artifact directory.
// Optional files that do not exist read as empty.
type Dir struct {
	Path string
}

// NewDir creates a Dir rooted at path.
func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

func (d *Dir) file(name string) string {
	return filepath.Join(d.Path, name)
}

func (d *Dir) open(ctx context.Context, name string, required bool) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.file(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if required {
				return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, d.file(name))
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

func (d *Dir) readList(ctx context.Context, name string, required bool) ([]string, error) {
	f, err := d.open(ctx, name, required)
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()
	return ReadList(f)
}

// Universe returns the tests in original execution order.
func (d *Dir) Universe(ctx context.Context) ([]string, error) {
	tests, err := d.readList(ctx, OriginalOrderFile, true)
	if err != nil {
		return nil, err
	}
	return domain.Dedupe(tests), nil
}

// SelectedTests returns the seed tests chosen by an upstream selector. It
// returns domain.ErrNotFound when no selection was made.
func (d *Dir) SelectedTests(ctx context.Context) ([]string, error) {
	return d.readList(ctx, SelectedTestsFile, true)
}

// Dependencies returns the test -> class relation. When only the
// class -> test file exists it is inverted.
func (d *Dir) Dependencies(ctx context.Context) (domain.Relation, error) {
	f, err := d.open(ctx, DepsFile, false)
	if err != nil {
		return nil, err
	}
	if f != nil {
		defer f.Close()
		return ParseRelation(f)
	}

	rf, err := d.open(ctx, ReverseDepsFile, false)
	if err != nil {
		return nil, err
	}
	if rf == nil {
		return domain.NewRelation(), nil
	}
	defer rf.Close()
	reverse, err := ParseRelation(rf)
	if err != nil {
		return nil, err
	}
	return closure.FromReverse(reverse).ForwardRelation(), nil
}

// FieldAccesses returns the test,field facts in file order.
func (d *Dir) FieldAccesses(ctx context.Context) ([]domain.FieldAccess, error) {
	f, err := d.open(ctx, FieldAccessesFile, false)
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()
	return ParseAccesses(f)
}

// Classes returns the class metadata from the fields file.
func (d *Dir) Classes(ctx context.Context) ([]domain.ClassInfo, error) {
	f, err := d.open(ctx, FieldsFile, false)
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()
	return ParseFields(f)
}

// Classpath returns the classpath entries. A single line may hold several
// entries separated by the OS list separator.
func (d *Dir) Classpath(ctx context.Context) ([]string, error) {
	lines, err := d.readList(ctx, ClasspathFile, false)
	if err != nil {
		return nil, err
	}
	var entries []string
	for _, line := range lines {
		for _, e := range filepath.SplitList(line) {
			if e = strings.TrimSpace(e); e != "" {
				entries = append(entries, e)
			}
		}
	}
	return entries, nil
}

// WriteSchedules implements the runner's artifact writer.
func (d *Dir) WriteSchedules(ctx context.Context, schedules []domain.Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteSchedules(d.Path, schedules)
}

// WriteAffected writes the affected tests list.
func (d *Dir) WriteAffected(ctx context.Context, tests []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.Path, err)
	}
	return WriteList(d.file(AffectedFile), tests)
}

// WriteFacts writes analyzer output into the directory: the test universe,
// the dependency relation, field accesses and field metadata.
func (d *Dir) WriteFacts(universe []string, deps domain.Relation, accesses []domain.FieldAccess, classes []domain.ClassInfo) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.Path, err)
	}
	if err := WriteList(d.file(OriginalOrderFile), universe); err != nil {
		return err
	}
	if err := WriteList(d.file(DepsFile), FormatRelation(deps)); err != nil {
		return err
	}
	accessLines := make([]string, len(accesses))
	for i, a := range accesses {
		accessLines[i] = a.Test + "," + a.Field
	}
	if err := WriteList(d.file(FieldAccessesFile), accessLines); err != nil {
		return err
	}
	var fieldLines []string
	for _, c := range classes {
		for _, f := range c.Fields {
			fieldLines = append(fieldLines, FormatField(c.Name, f, c.Enum))
		}
	}
	return WriteList(d.file(FieldsFile), fieldLines)
}

// FileChecksumStore keeps classpath checksums in a path,checksum file.
type FileChecksumStore struct {
	path string
}

// NewFileChecksumStore creates a store backed by the file at path.
func NewFileChecksumStore(path string) *FileChecksumStore {
	return &FileChecksumStore{path: path}
}

// LoadChecksums returns domain.ErrNotFound when the file does not exist.
func (s *FileChecksumStore) LoadChecksums(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := readListFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	sums := make(map[string]string, len(lines))
	for _, line := range lines {
		idx := strings.LastIndex(line, ",")
		if idx <= 0 {
			continue
		}
		sums[line[:idx]] = line[idx+1:]
	}
	return sums, nil
}

// SaveChecksums rewrites the file with sorted entries.
func (s *FileChecksumStore) SaveChecksums(ctx context.Context, sums map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	entries := make([]string, 0, len(sums))
	for e := range sums {
		entries = append(entries, e)
	}
	sort.Strings(entries)
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e + "," + sums[e]
	}
	return WriteList(s.path, lines)
}
