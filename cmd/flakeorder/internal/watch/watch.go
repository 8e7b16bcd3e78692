// Package watch triggers a callback when files in a directory change.
// Bursts of events are coalesced into one call after a quiet period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 500 * time.Millisecond

// ErrInvalidPattern indicates an ignore pattern could not be compiled.
var ErrInvalidPattern = errors.New("invalid ignore pattern")

// Config configures a Watcher.
type Config struct {
	// Dir is the directory to watch. Subdirectories are not watched.
	Dir string

	// Ignore are glob patterns matched against file base names.
	Ignore []string

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

// Watcher reports changes under one directory.
type Watcher struct {
	config  Config
	ignores []glob.Glob
	fs      *fsnotify.Watcher
}

// New creates a Watcher. Run must be called to start watching.
func New(config Config) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	ignores := make([]glob.Glob, 0, len(config.Ignore))
	for _, pattern := range config.Ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		ignores = append(ignores, g)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(config.Dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", config.Dir, err)
	}
	return &Watcher{config: config, ignores: ignores, fs: fw}, nil
}

// Run blocks until ctx is done, calling onChange with the sorted base
// names changed since the last call. Calls never overlap; changes made
// while onChange runs are reported by the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string)) error {
	defer w.fs.Close()

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending[filepath.Base(event.Name)] = true
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
			} else {
				timer.Reset(w.config.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)
			onChange(ctx, changed)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	for _, g := range w.ignores {
		if g.Match(base) {
			return false
		}
	}
	return true
}
