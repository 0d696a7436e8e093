package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/nao1215/stubreport/internal/model"
	"github.com/nao1215/stubreport/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "stubreport"

	// DefaultOutputDir is the directory artifacts are written to.
	DefaultOutputDir = "."

	// DefaultBatchSize is the number of registry files processed concurrently.
	// Rendering is CPU-bound and each run holds one registry in memory, so a
	// small pool is enough.
	DefaultBatchSize = 4

	// DefaultVersionThreshold is the highest era dropped from the feature changelog.
	DefaultVersionThreshold = model.DefaultVersionThreshold

	// DefaultVersionCacheSize is the number of distinct version tags memoised.
	DefaultVersionCacheSize = model.DefaultVersionCacheSize
)

// Config holds all configuration options for stubreport.
// It is populated from defaults, the config file, the environment and CLI
// flags, and then passed down explicitly rather than kept in global state.
type Config struct {
	// RegistryFiles are the registry dump files to process.
	RegistryFiles []string

	// Modes are the artifact modes to generate, by name.
	// Order is kept; duplicates are ignored by ReportModes.
	Modes []string

	// OutputDir is the directory file artifacts are written to.
	// In batch runs each registry gets its own subdirectory.
	OutputDir string

	// VersionThreshold is the highest era dropped from version-grouped output.
	// Tags whose leading version numeral has an integer part <= this value are skipped.
	VersionThreshold int

	// VersionCacheSize bounds the version tag parse cache.
	VersionCacheSize int

	// BatchSize is the number of registry files processed concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .stubreport in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// DBDir is the directory path for storing the snapshot database.
	// Defaults to XDG data directory (~/.local/share/stubreport on Linux).
	DBDir string

	// SaveToDB enables saving a registry snapshot after each successful run.
	SaveToDB bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// JSONLogs switches log output from text to JSON.
	JSONLogs bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Modes:            []string{string(report.ModeChangelog)},
		OutputDir:        DefaultOutputDir,
		VersionThreshold: DefaultVersionThreshold,
		VersionCacheSize: DefaultVersionCacheSize,
		BatchSize:        DefaultBatchSize,
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
	}
}

// XDGDataDir returns the XDG data directory for stubreport.
// On Linux: ~/.local/share/stubreport
// On macOS: ~/Library/Application Support/stubreport
// On Windows: %LOCALAPPDATA%\stubreport
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ReportModes parses Modes, dropping duplicates and keeping first-seen order.
func (c *Config) ReportModes() ([]report.Mode, error) {
	seen := make(map[report.Mode]bool, len(c.Modes))
	out := make([]report.Mode, 0, len(c.Modes))
	for _, name := range c.Modes {
		m, err := report.ParseMode(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMode, err)
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors in errors.go.
//
// Design decision: Validation runs once after all layers are merged, so a
// bad value fails before any registry is read.
func (c *Config) Validate() error {
	if len(c.RegistryFiles) == 0 {
		return ErrNoRegistry
	}

	if len(c.Modes) == 0 {
		return ErrNoMode
	}
	if _, err := c.ReportModes(); err != nil {
		return err
	}

	if c.VersionThreshold < 0 {
		return ErrInvalidThreshold
	}

	if c.VersionCacheSize <= 0 {
		return ErrInvalidCacheSize
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}
