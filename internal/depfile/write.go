package depfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/flakeorder/detector/domain"
)

const (
	// ScheduleFilePrefix prefixes the per-schedule files order-1..order-k.
	ScheduleFilePrefix = "order-"

	// NumOrdersFile holds the number of schedule files written.
	NumOrdersFile = "num-of-orders"
)

// WriteList writes items to path, one per line.
func WriteList(path string, items []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, item := range items {
		if _, err := w.WriteString(item + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// WriteSchedules writes each schedule's tests to dir/order-i, numbered
// from 1, and the count to dir/num-of-orders. Stale order files from a
// previous, longer run are removed.
func WriteSchedules(dir string, schedules []domain.Schedule) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for i, s := range schedules {
		path := filepath.Join(dir, ScheduleFilePrefix+strconv.Itoa(i+1))
		if err := WriteList(path, s.Tests); err != nil {
			return err
		}
	}
	if err := removeStaleOrders(dir, len(schedules)); err != nil {
		return err
	}
	return WriteList(filepath.Join(dir, NumOrdersFile), []string{strconv.Itoa(len(schedules))})
}

func removeStaleOrders(dir string, keep int) error {
	matches, err := filepath.Glob(filepath.Join(dir, ScheduleFilePrefix+"*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(m), ScheduleFilePrefix))
		if err != nil || n <= keep {
			continue
		}
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("failed to remove stale %s: %w", m, err)
		}
	}
	return nil
}

// ReadSchedules reads back the schedules written by WriteSchedules.
func ReadSchedules(dir string) ([][]string, error) {
	countLines, err := readListFile(filepath.Join(dir, NumOrdersFile))
	if err != nil {
		return nil, err
	}
	if len(countLines) == 0 {
		return nil, fmt.Errorf("%s is empty", NumOrdersFile)
	}
	k, err := strconv.Atoi(countLines[0])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", NumOrdersFile, err)
	}
	out := make([][]string, 0, k)
	for i := 1; i <= k; i++ {
		tests, err := readListFile(filepath.Join(dir, ScheduleFilePrefix+strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		out = append(out, tests)
	}
	return out, nil
}

func readListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadList(f)
}
