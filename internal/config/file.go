package config

import (
	"os"
	"path/filepath"
	"strings"
)

// File represents the structure of the .stubreport configuration file.
// Every field is optional; unset fields leave the current value alone.
type File struct {
	// Registries lists registry files used when none are given on the command line.
	// Relative paths are resolved by the caller against the working directory.
	// A leading ~ is expanded to the home directory, as for every path field.
	Registries []string `yaml:"registries,omitempty"`

	// Modes lists the artifact modes to generate.
	Modes []string `yaml:"modes,omitempty"`

	// OutputDir is the directory artifacts are written to.
	OutputDir string `yaml:"output_dir,omitempty"`

	// DBDir is the snapshot database directory.
	DBDir string `yaml:"db_dir,omitempty"`

	// VersionThreshold is a pointer so that an explicit 0 can be told apart from unset.
	VersionThreshold *int `yaml:"version_threshold,omitempty"`

	// BatchSize is the number of registry files processed concurrently.
	BatchSize int `yaml:"batch_size,omitempty"`

	// SaveSnapshots enables or disables snapshot history.
	SaveSnapshots *bool `yaml:"save_snapshots,omitempty"`
}

// Apply copies every set field of f onto cfg.
func (f *File) Apply(cfg *Config) {
	if f == nil {
		return
	}
	if len(f.Registries) > 0 {
		cfg.RegistryFiles = make([]string, len(f.Registries))
		for i, p := range f.Registries {
			cfg.RegistryFiles[i] = ExpandHome(p)
		}
	}
	if len(f.Modes) > 0 {
		cfg.Modes = append([]string(nil), f.Modes...)
	}
	if f.OutputDir != "" {
		cfg.OutputDir = ExpandHome(f.OutputDir)
	}
	if f.DBDir != "" {
		cfg.DBDir = ExpandHome(f.DBDir)
	}
	if f.VersionThreshold != nil {
		cfg.VersionThreshold = *f.VersionThreshold
	}
	if f.BatchSize != 0 {
		cfg.BatchSize = f.BatchSize
	}
	if f.SaveSnapshots != nil {
		cfg.SaveToDB = *f.SaveSnapshots
	}
}

// ExpandHome replaces a leading "~" or "~/" in path with the user's home
// directory. Other paths, and paths when the home directory is unknown, are
// returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
