package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".stubreport"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers decide whether that is fatal based on whether the path was given
// explicitly by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .stubreport in the current directory
// 3. Look for .stubreport in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// Load builds a Config from the defaults, the configuration file and the
// environment, in that order. Command line flags are left to the caller.
//
// configPath is the file named by the user; when it is empty the default
// locations are searched and a missing file is not an error. The environment
// is the process environment backed by DefaultDotEnvFile.
//
// Design decision: every command loads through this function so that a
// db_dir set once in .stubreport is seen by both generate and compare.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()

	if path := FindConfigFile(configPath); path != "" {
		file, err := LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file.Apply(cfg)
		cfg.ConfigFilePath = path
	} else if configPath != "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	values, err := ReadDotEnv(DefaultDotEnvFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(EnvLookup(values)); err != nil {
		return nil, err
	}
	return cfg, nil
}
