package model

// Diff lists the entities added and removed between two registries.
type Diff struct {
	// Added holds entities present only in the newer registry, by ascending path.
	Added []*Entity

	// Removed holds entities present only in the older registry, by ascending path.
	Removed []*Entity
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// CompareRegistries computes the path-level difference from older to newer.
// A nil older registry means every entity of newer was added.
func CompareRegistries(older, newer *Registry) Diff {
	var d Diff
	for _, e := range newer.entities {
		if older == nil {
			d.Added = append(d.Added, e)
			continue
		}
		if _, ok := older.byPath[e.Path]; !ok {
			d.Added = append(d.Added, e)
		}
	}
	if older == nil {
		return d
	}
	for _, e := range older.entities {
		if _, ok := newer.byPath[e.Path]; !ok {
			d.Removed = append(d.Removed, e)
		}
	}
	return d
}
