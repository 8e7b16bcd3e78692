package domain

import "fmt"

// Granularity selects whether schedules permute tests or test classes.
type Granularity string

const (
	// GranularityClass permutes test classes; tests stay grouped per class.
	GranularityClass Granularity = "class"

	// GranularityTest permutes individual tests.
	GranularityTest Granularity = "test"
)

// DefaultMaxSquareOrder bounds squares requested outside a planning run.
const DefaultMaxSquareOrder = 1024

// Config holds configuration for a detection run.
type Config struct {
	// Delimiter separates the class from the method in a test identifier.
	// The class is everything before its last occurrence.
	// Default: "."
	Delimiter string `yaml:"delimiter"`

	// Granularity is the unit that schedules permute.
	// Default: class
	Granularity Granularity `yaml:"granularity"`

	// MaxSchedules caps the number of emitted schedules. Pairs left
	// uncovered by the cap mark the plan incomplete.
	// Default: 0 (unlimited)
	MaxSchedules int `yaml:"max_schedules"`

	// MaxSquareOrder is the largest order a square may be requested for
	// directly.
	// Default: 1024
	MaxSquareOrder int `yaml:"max_square_order"`

	// ImmutableTypes are type names whose final static fields are never
	// treated as shared mutable state.
	// Default: DefaultImmutableTypes()
	ImmutableTypes []string `yaml:"immutable_types"`

	// Exclude lists glob patterns of tests dropped from the universe.
	Exclude []string `yaml:"exclude"`

	// SelectAll skips change detection and affected-test selection.
	SelectAll bool `yaml:"select_all"`

	// ArtifactsDir is where facts are read from and schedules are written.
	// Default: ".flakeorder"
	ArtifactsDir string `yaml:"artifacts_dir"`

	// DatabasePath is the SQLite file holding run history and checksums.
	// Empty means ArtifactsDir/flakeorder.db.
	DatabasePath string `yaml:"database_path"`

	// OracleCacheSize bounds the class metadata cache.
	// Default: 1024
	OracleCacheSize int `yaml:"oracle_cache_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Delimiter:       ".",
		Granularity:     GranularityClass,
		MaxSchedules:    0,
		MaxSquareOrder:  DefaultMaxSquareOrder,
		ImmutableTypes:  DefaultImmutableTypes(),
		ArtifactsDir:    ".flakeorder",
		OracleCacheSize: 1024,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Delimiter == "" {
		return fmt.Errorf("%w: Delimiter must not be empty", ErrInvalidConfig)
	}
	if c.Granularity != GranularityClass && c.Granularity != GranularityTest {
		return fmt.Errorf("%w: Granularity must be %q or %q, got %q",
			ErrInvalidConfig, GranularityClass, GranularityTest, c.Granularity)
	}
	if c.MaxSchedules < 0 {
		return fmt.Errorf("%w: MaxSchedules must not be negative, got %d",
			ErrInvalidConfig, c.MaxSchedules)
	}
	if c.MaxSquareOrder < 2 {
		return fmt.Errorf("%w: MaxSquareOrder must be at least 2, got %d",
			ErrInvalidConfig, c.MaxSquareOrder)
	}
	if c.OracleCacheSize < 1 {
		return fmt.Errorf("%w: OracleCacheSize must be at least 1, got %d",
			ErrInvalidConfig, c.OracleCacheSize)
	}
	if c.ArtifactsDir == "" {
		return fmt.Errorf("%w: ArtifactsDir must not be empty", ErrInvalidConfig)
	}
	return nil
}

// WithDefaults returns a new config with defaults applied for zero values.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()
	if c.Delimiter == "" {
		c.Delimiter = defaults.Delimiter
	}
	if c.Granularity == "" {
		c.Granularity = defaults.Granularity
	}
	if c.MaxSquareOrder == 0 {
		c.MaxSquareOrder = defaults.MaxSquareOrder
	}
	if c.ImmutableTypes == nil {
		c.ImmutableTypes = defaults.ImmutableTypes
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = defaults.ArtifactsDir
	}
	if c.OracleCacheSize == 0 {
		c.OracleCacheSize = defaults.OracleCacheSize
	}
	return c
}

// DefaultImmutableTypes returns the JVM value types whose final static
// instances cannot carry state between tests.
func DefaultImmutableTypes() []string {
	return []string{
		"java.lang.String",
		"java.lang.Enum",
		"java.lang.StackTraceElement",
		"java.math.BigInteger",
		"java.math.BigDecimal",
		"java.io.File",
		"java.awt.Font",
		"java.awt.BasicStroke",
		"java.awt.Color",
		"java.awt.GradientPaint",
		"java.awt.LinearGradientPaint",
		"java.awt.RadialGradientPaint",
		"java.awt.Cursor",
		"java.util.Locale",
		"java.util.UUID",
		"java.util.Collections",
		"java.net.URL",
		"java.net.URI",
		"java.net.Inet4Address",
		"java.net.Inet6Address",
		"java.net.InetSocketAddress",
		"java.util.regex.Pattern",
	}
}
