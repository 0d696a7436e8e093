package report

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a mode name is not recognized.
var ErrUnknownMode = errors.New("unknown report mode")

// Mode selects which artifact Generate produces.
type Mode string

const (
	// ModeChangelog is the flat changelog (Mode A).
	ModeChangelog Mode = "changelog"

	// ModeCoverage is the coverage manifest (Mode B).
	ModeCoverage Mode = "coverage"

	// ModeFeatures is the version-grouped feature changelog on stdout (Mode C).
	ModeFeatures Mode = "features"

	// ModeFeaturesJSON is the version-grouped feature changelog as JSON.
	ModeFeaturesJSON Mode = "features-json"

	// ModeIndex is the Markdown type index page.
	ModeIndex Mode = "index"

	// ModeIndexHTML is the HTML type index page.
	ModeIndexHTML Mode = "index-html"
)

// Artifact file names.
const (
	ChangelogFileName    = "Changelog SU201x.log"
	CoverageFileName     = "coverage.manifest"
	FeaturesJSONFileName = "features.json"
	IndexFileName        = "index.md"
	IndexHTMLFileName    = "index.html"
)

// Modes returns every mode in a stable order.
func Modes() []Mode {
	return []Mode{
		ModeChangelog,
		ModeCoverage,
		ModeFeatures,
		ModeFeaturesJSON,
		ModeIndex,
		ModeIndexHTML,
	}
}

// ParseMode converts a mode name into a Mode. Matching ignores case and
// surrounding whitespace.
func ParseMode(name string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Modes() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// FileName returns the artifact file name, or "" for modes that write to a stream.
func (m Mode) FileName() string {
	switch m {
	case ModeChangelog:
		return ChangelogFileName
	case ModeCoverage:
		return CoverageFileName
	case ModeFeaturesJSON:
		return FeaturesJSONFileName
	case ModeIndex:
		return IndexFileName
	case ModeIndexHTML:
		return IndexHTMLFileName
	default:
		return ""
	}
}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}
