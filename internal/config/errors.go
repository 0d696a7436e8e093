package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and ApplyEnv so callers can
// use errors.Is() while still getting a readable message.
var (
	// ErrNoRegistry is returned when no registry file is given on the command
	// line or in the config file.
	ErrNoRegistry = errors.New("no registry specified: provide one or more registry files")

	// ErrNoMode is returned when the mode list is empty.
	ErrNoMode = errors.New("no report mode specified")

	// ErrInvalidMode is returned when a mode name is not recognized.
	ErrInvalidMode = errors.New("invalid report mode")

	// ErrInvalidThreshold is returned when the version threshold is negative.
	ErrInvalidThreshold = errors.New("invalid version threshold: must be non-negative")

	// ErrInvalidCacheSize is returned when the version cache size is not positive.
	ErrInvalidCacheSize = errors.New("invalid version cache size: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrNoDBDir is returned when snapshots are enabled without a database directory.
	ErrNoDBDir = errors.New("snapshot saving is enabled but no database directory is set")

	// ErrInvalidEnv is returned when an environment variable holds an unusable value.
	ErrInvalidEnv = errors.New("invalid environment variable")
)
