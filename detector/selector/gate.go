package selector

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/example/flakeorder/detector/domain"
)

// UnreadableChecksum is recorded for classpath entries that cannot be read.
const UnreadableChecksum = "-1"

// ChecksumStore persists the classpath checksums of the previous run.
type ChecksumStore interface {
	// LoadChecksums returns the stored entry -> checksum map, or
	// domain.ErrNotFound when nothing has been stored yet.
	LoadChecksums(ctx context.Context) (map[string]string, error)

	// SaveChecksums replaces the stored map.
	SaveChecksums(ctx context.Context, sums map[string]string) error
}

// Gate detects changes to classpath entries between runs. A change means
// dependency facts may be stale and every test must be treated as affected.
type Gate struct {
	store ChecksumStore
}

// NewGate creates a Gate backed by store.
func NewGate(store ChecksumStore) *Gate {
	return &Gate{store: store}
}

// Changed checksums every classpath entry, compares the result with the
// stored set and stores the new set. A missing stored set counts as a
// change. An empty classpath disables the check.
func (g *Gate) Changed(ctx context.Context, classpath []string) (bool, error) {
	if len(classpath) == 0 {
		return false, nil
	}

	current := make(map[string]string, len(classpath))
	for _, entry := range classpath {
		current[entry] = Checksum(entry)
	}

	previous, err := g.store.LoadChecksums(ctx)
	changed := false
	switch {
	case errors.Is(err, domain.ErrNotFound):
		changed = true
	case err != nil:
		return false, fmt.Errorf("failed to load checksums: %w", err)
	default:
		changed = !sameChecksums(previous, current)
	}

	if err := g.store.SaveChecksums(ctx, current); err != nil {
		return false, fmt.Errorf("failed to save checksums: %w", err)
	}
	if changed {
		log.Printf("selector: classpath changed across %d entries", len(current))
	}
	return changed, nil
}

// Checksum returns the hex BLAKE2b-256 digest of the file at path, or
// UnreadableChecksum when it cannot be read.
func Checksum(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return UnreadableChecksum
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return UnreadableChecksum
	}
	if _, err := io.Copy(h, f); err != nil {
		return UnreadableChecksum
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sameChecksums(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
