package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvOutputDir        = "STUBREPORT_OUTPUT_DIR"
	EnvDBDir            = "STUBREPORT_DB_DIR"
	EnvVersionThreshold = "STUBREPORT_VERSION_THRESHOLD"
)

// DefaultDotEnvFile is the dotenv file looked up in the working directory.
const DefaultDotEnvFile = ".env"

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ReadDotEnv reads a dotenv file. A missing file yields an empty map.
// The process environment is not modified.
func ReadDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

// EnvLookup returns a LookupFunc that consults the process environment first
// and falls back to values (typically read from a dotenv file).
func EnvLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}
}

// ApplyEnv copies the STUBREPORT_* variables found through lookup onto c.
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.OutputDir = ExpandHome(v)
	}
	if v, ok := lookup(EnvDBDir); ok && v != "" {
		c.DBDir = ExpandHome(v)
	}
	if v, ok := lookup(EnvVersionThreshold); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidEnv, EnvVersionThreshold, v)
		}
		c.VersionThreshold = n
	}
	return nil
}
