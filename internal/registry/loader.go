package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/stubreport/internal/model"
)

var (
	// ErrRegistryNotFound is returned when the dump file does not exist.
	ErrRegistryNotFound = errors.New("registry file not found")

	// ErrInvalidEntity is returned when an entity fails field validation.
	ErrInvalidEntity = errors.New("invalid registry entity")

	// ErrEmptyRegistry is returned when a dump file has no entities key at all.
	ErrEmptyRegistry = errors.New("registry file has no entities")
)

// validate is shared because validator caches struct metadata per instance.
var validate = validator.New()

// LoadFile reads and decodes a registry dump file.
// The registry name defaults to the file name without its extension.
func LoadFile(path string) (*model.Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided registry path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, path)
		}
		return nil, err
	}

	return Decode(NameFromPath(path), data)
}

// Decode decodes a registry dump. fallbackName is used when the dump does
// not carry a name of its own.
func Decode(fallbackName string, data []byte) (*model.Registry, error) {
	var snap struct {
		Name     string          `yaml:"name"`
		Entities *[]model.Entity `yaml:"entities"`
	}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}
	if snap.Entities == nil {
		return nil, ErrEmptyRegistry
	}

	name := snap.Name
	if name == "" {
		name = fallbackName
	}

	entities := *snap.Entities
	for i := range entities {
		if err := validate.Struct(&entities[i]); err != nil {
			return nil, fmt.Errorf("%w: entity %d (%q): %v", ErrInvalidEntity, i, entities[i].Path, err)
		}
	}

	return model.NewRegistry(name, entities)
}

// NameFromPath derives a registry name from a dump file path:
// "build/sketchup-api.yaml" becomes "sketchup-api".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
