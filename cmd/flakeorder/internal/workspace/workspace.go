// Package workspace resolves the configuration, artifact directory and run
// database a command operates on.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/detector/runner"
	"github.com/example/flakeorder/internal/config"
	"github.com/example/flakeorder/internal/depfile"
	"github.com/example/flakeorder/internal/storage"
	"github.com/example/flakeorder/internal/storage/sqlite"
	"github.com/example/flakeorder/pkg/id"
)

// Workspace is a resolved project configuration.
type Workspace struct {
	// Root is the directory the command runs against.
	Root string

	// ConfigPath is the file the configuration came from, or empty.
	ConfigPath string

	Config domain.Config
}

// Open loads the configuration for root. An explicit configPath skips
// discovery. Overrides are applied after loading, then the result is
// validated.
func Open(root, configPath string, overrides ...func(*domain.Config)) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var loaded *config.Loaded
	if configPath != "" {
		loaded, err = config.Load(configPath)
	} else {
		loaded, err = config.Discover(abs)
	}
	if err != nil {
		return nil, err
	}

	cfg := loaded.Config
	if loaded.Path == "" && !filepath.IsAbs(cfg.ArtifactsDir) {
		cfg.ArtifactsDir = filepath.Join(abs, cfg.ArtifactsDir)
	}
	for _, o := range overrides {
		o(&cfg)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Workspace{Root: abs, ConfigPath: loaded.Path, Config: cfg}, nil
}

// ArtifactsDir returns the fact and schedule directory.
func (w *Workspace) ArtifactsDir() string {
	return w.Config.ArtifactsDir
}

// Facts returns the artifact directory as a fact source and writer.
func (w *Workspace) Facts() *depfile.Dir {
	return depfile.NewDir(w.Config.ArtifactsDir)
}

// DatabasePath returns the run database location.
func (w *Workspace) DatabasePath() string {
	return config.DatabasePath(w.Config)
}

// OpenStorage opens the run database, creating it if needed.
func (w *Workspace) OpenStorage(ctx context.Context) (*sqlite.SQLiteStorage, error) {
	path := w.DatabasePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return sqlite.Open(ctx, path)
}

// Runner builds a runner over the artifact directory with run history and
// classpath change detection backed by the run database. The returned
// function closes the database.
func (w *Workspace) Runner(ctx context.Context, opts ...runner.Option) (*runner.Runner, func() error, error) {
	store, err := w.OpenStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	facts := w.Facts()
	base := []runner.Option{
		runner.WithWriter(facts),
		runner.WithRunStore(storage.NewRunStore(store)),
		runner.WithChecksumStore(storage.NewChecksumStore(store)),
	}
	r, err := runner.NewRunner(w.Config, facts, id.Generate, append(base, opts...)...)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return r, store.Close, nil
}
