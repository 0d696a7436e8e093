// Package config provides configuration structures and utilities for stubreport.
// It defines where registries are read from, which artifacts are generated,
// where they are written, and where snapshot history is kept.
//
// Values are layered, each layer overriding the previous one:
//  1. NewConfig defaults
//  2. the .stubreport YAML file (File.Apply)
//  3. STUBREPORT_* environment variables, optionally from a .env file (ApplyEnv)
//  4. command line flags set explicitly by the user
package config
