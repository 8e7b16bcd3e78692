// Package config loads project configuration from .flakeorder.yaml.
//
// The file is looked up in the working directory and its parents. Keys
// overlay domain.DefaultConfig; anything the file omits keeps its default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/flakeorder/detector/domain"
)

// FileName is the project configuration file name.
const FileName = ".flakeorder.yaml"

// File is the on-disk shape of the configuration file.
type File struct {
	domain.Config `yaml:",inline"`

	// ExtraImmutableTypes are appended to ImmutableTypes instead of
	// replacing them.
	ExtraImmutableTypes []string `yaml:"extra_immutable_types,omitempty"`
}

// Loaded is a resolved configuration and where it came from.
type Loaded struct {
	Config domain.Config

	// Path is the file that was read, or empty when defaults were used.
	Path string
}

// Find looks for FileName in dir and its parents. It returns an empty
// string when none exists.
func Find(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Discover finds and loads the configuration for dir. Without a file the
// defaults are returned.
func Discover(dir string) (*Loaded, error) {
	path := Find(dir)
	if path == "" {
		return &Loaded{Config: domain.DefaultConfig()}, nil
	}
	return Load(path)
}

// Load reads the configuration file at path. Relative ArtifactsDir and
// DatabasePath values are resolved against the file's directory.
func Load(path string) (*Loaded, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	if !filepath.IsAbs(cfg.ArtifactsDir) {
		cfg.ArtifactsDir = filepath.Join(base, cfg.ArtifactsDir)
	}
	if cfg.DatabasePath != "" && !filepath.IsAbs(cfg.DatabasePath) {
		cfg.DatabasePath = filepath.Join(base, cfg.DatabasePath)
	}
	return &Loaded{Config: cfg, Path: path}, nil
}

// Parse decodes a configuration document over the defaults and validates
// the result. Unknown keys are rejected.
func Parse(r io.Reader) (domain.Config, error) {
	f := File{Config: domain.DefaultConfig()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return domain.Config{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	cfg := f.Config.WithDefaults()
	cfg.ImmutableTypes = append(append([]string(nil), cfg.ImmutableTypes...), f.ExtraImmutableTypes...)
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// DatabasePath returns where run history is stored for cfg.
func DatabasePath(cfg domain.Config) string {
	if cfg.DatabasePath != "" {
		return cfg.DatabasePath
	}
	return filepath.Join(cfg.ArtifactsDir, "flakeorder.db")
}

// Write renders cfg as YAML.
func Write(w io.Writer, cfg domain.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Config: cfg}); err != nil {
		return err
	}
	return enc.Close()
}
