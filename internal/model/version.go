package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrMalformedVersionTag is matched by every *MalformedVersionTagError.
var ErrMalformedVersionTag = errors.New("malformed version tag")

// MalformedVersionTagError reports a version tag whose text does not follow
// the "<prefix><numeral>[ M<digits>]" grammar.
type MalformedVersionTagError struct {
	// Path is the entity carrying the tag. Empty when parsing bare text.
	Path string

	// Raw is the offending tag text.
	Raw string
}

// Error implements error.
func (e *MalformedVersionTagError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed version tag %q", e.Raw)
	}
	return fmt.Sprintf("malformed version tag %q on %s", e.Raw, e.Path)
}

// Is makes errors.Is(err, ErrMalformedVersionTag) succeed.
func (e *MalformedVersionTagError) Is(target error) bool {
	return target == ErrMalformedVersionTag
}

// VersionTag is a parsed "version" tag.
//
// Examples:
//
//	"SketchUp 2017"     -> Major 2017, no maintenance
//	"SketchUp 2017 M1"  -> Major 2017, Maintenance 1
//	"LayOut 2019 M1"    -> Major 2019, Maintenance 1
//	"SketchUp 8.0 M1"   -> Major 8.0,  Maintenance 1
type VersionTag struct {
	// Raw is the tag text exactly as documented.
	Raw string

	// Numeral is the dotted numeral found after the prefix (e.g. "8.0").
	Numeral string

	// Major is the numeric value of the numeral's leading "digits[.digits]".
	Major float64

	// Maintenance is the number after " M". Zero when absent.
	Maintenance int

	// HasMaintenance reports whether a " M<digits>" suffix was present.
	HasMaintenance bool
}

// Era returns Major truncated to an integer.
func (v VersionTag) Era() int {
	return int(math.Trunc(v.Major))
}

// After reports whether the version's era is strictly greater than threshold.
func (v VersionTag) After(threshold int) bool {
	return v.Era() > threshold
}

// ParseVersionTag parses tag text of the form
//
//	[non-digit prefix] numeral [" M" digits]
//
// where numeral starts with a digit and contains only digits and dots.
// Surrounding whitespace is ignored. Any other text yields a
// *MalformedVersionTagError.
func ParseVersionTag(raw string) (VersionTag, error) {
	malformed := &MalformedVersionTagError{Raw: raw}
	s := strings.TrimSpace(raw)

	i := 0
	for i < len(s) && !isDigit(s[i]) {
		i++
	}
	if i == len(s) {
		return VersionTag{}, malformed
	}

	start := i
	for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
		i++
	}
	numeral := s[start:i]

	major, err := strconv.ParseFloat(leadingDecimal(numeral), 64)
	if err != nil {
		return VersionTag{}, malformed
	}

	tag := VersionTag{
		Raw:     raw,
		Numeral: numeral,
		Major:   major,
	}

	rest := s[i:]
	if rest == "" {
		return tag, nil
	}

	digits, ok := strings.CutPrefix(rest, " M")
	if !ok || digits == "" {
		return VersionTag{}, malformed
	}
	for j := 0; j < len(digits); j++ {
		if !isDigit(digits[j]) {
			return VersionTag{}, malformed
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return VersionTag{}, malformed
	}

	tag.Maintenance = n
	tag.HasMaintenance = true
	return tag, nil
}

// leadingDecimal returns the "digits[.digits]" prefix of a dotted numeral,
// so "8.0.1" reads as 8.0 and "2017." reads as 2017.
func leadingDecimal(numeral string) string {
	end := 0
	for end < len(numeral) && isDigit(numeral[end]) {
		end++
	}
	if end+1 < len(numeral) && numeral[end] == '.' && isDigit(numeral[end+1]) {
		end++
		for end < len(numeral) && isDigit(numeral[end]) {
			end++
		}
	}
	return numeral[:end]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// DefaultVersionCacheSize is the number of distinct tag texts kept parsed.
// Real registries use a few dozen distinct tags across thousands of entities.
const DefaultVersionCacheSize = 256

// parsedTag is a cached parse outcome.
type parsedTag struct {
	tag VersionTag
	ok  bool
}

// VersionParser parses version tags and memoises the result per tag text.
// It is safe for concurrent use. A nil *VersionParser parses without caching.
type VersionParser struct {
	cache *lru.Cache[string, parsedTag]
}

// NewVersionParser creates a VersionParser caching up to size distinct tags.
// A non-positive size selects DefaultVersionCacheSize.
func NewVersionParser(size int) *VersionParser {
	if size <= 0 {
		size = DefaultVersionCacheSize
	}
	cache, err := lru.New[string, parsedTag](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		return &VersionParser{}
	}
	return &VersionParser{cache: cache}
}

// Parse parses raw tag text, consulting the cache first.
func (p *VersionParser) Parse(raw string) (VersionTag, error) {
	if p == nil || p.cache == nil {
		return ParseVersionTag(raw)
	}
	if hit, ok := p.cache.Get(raw); ok {
		if !hit.ok {
			return VersionTag{}, &MalformedVersionTagError{Raw: raw}
		}
		return hit.tag, nil
	}
	tag, err := ParseVersionTag(raw)
	p.cache.Add(raw, parsedTag{tag: tag, ok: err == nil})
	return tag, err
}

// EntityVersion parses the version tag of e.
// It returns present=false when e has no version tag. A malformed tag
// yields a *MalformedVersionTagError naming e.Path.
func (p *VersionParser) EntityVersion(e *Entity) (tag VersionTag, present bool, err error) {
	raw, ok := e.VersionText()
	if !ok {
		return VersionTag{}, false, nil
	}
	tag, err = p.Parse(raw)
	if err != nil {
		return VersionTag{}, true, &MalformedVersionTagError{Path: e.Path, Raw: raw}
	}
	return tag, true, nil
}
