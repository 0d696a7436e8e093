package model

import (
	"cmp"
	"slices"
	"sort"
)

// DefaultVersionThreshold is the highest era excluded from version-grouped
// output. Entities documented as "SketchUp 6" or earlier predate the
// changelog and are dropped.
const DefaultVersionThreshold = 6

// VersionGroup holds the entities documented with one version tag,
// bucketed by entity type.
type VersionGroup struct {
	// Version is the parsed tag shared by all entities in the group.
	Version VersionTag

	// Types maps an entity type to the ascending paths of that type.
	Types map[string][]string
}

// TypeNames returns the non-empty type buckets in ascending order.
func (g VersionGroup) TypeNames() []string {
	names := make([]string, 0, len(g.Types))
	for typ, paths := range g.Types {
		if len(paths) > 0 {
			names = append(names, typ)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entities in the group.
func (g VersionGroup) Len() int {
	n := 0
	for _, paths := range g.Types {
		n += len(paths)
	}
	return n
}

// GroupByVersion buckets the registry's entities by raw version tag text.
//
// Entities without a version tag are dropped, as are entities whose version
// era is not greater than threshold. Groups are ordered by descending Major,
// then descending Maintenance (absent counts as 0), then ascending raw text.
// The first malformed tag aborts grouping with a *MalformedVersionTagError.
func GroupByVersion(reg *Registry, threshold int, parser *VersionParser) ([]VersionGroup, error) {
	byRaw := make(map[string]*VersionGroup)

	for _, e := range reg.entities {
		tag, present, err := parser.EntityVersion(e)
		if err != nil {
			return nil, err
		}
		if !present || !tag.After(threshold) {
			continue
		}

		g, ok := byRaw[tag.Raw]
		if !ok {
			g = &VersionGroup{
				Version: tag,
				Types:   make(map[string][]string),
			}
			byRaw[tag.Raw] = g
		}
		// reg.entities is sorted by path, so each bucket stays sorted.
		g.Types[e.Type] = append(g.Types[e.Type], e.Path)
	}

	groups := make([]VersionGroup, 0, len(byRaw))
	for _, g := range byRaw {
		groups = append(groups, *g)
	}
	slices.SortFunc(groups, compareGroups)

	return groups, nil
}

// compareGroups orders newest release first.
func compareGroups(a, b VersionGroup) int {
	if c := cmp.Compare(b.Version.Major, a.Version.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Version.Maintenance, a.Version.Maintenance); c != 0 {
		return c
	}
	return cmp.Compare(a.Version.Raw, b.Version.Raw)
}
