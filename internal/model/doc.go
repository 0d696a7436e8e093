// Package model defines the data structures shared across stubreport.
//
// This package contains:
//   - Entity: one documented class, module, method or other object
//   - Registry: the immutable set of entities produced by one documentation build
//   - VersionTag: the parsed form of a "version" tag such as "SketchUp 2017 M1"
//   - VersionGroup: entities bucketed by version tag and entity type
//   - Diff: the entities added and removed between two registries
//
// Design decision: The registry is treated as a read-only snapshot. Reports
// are pure folds over it (filter, group, sort, format), so nothing in this
// package keeps state between runs.
package model
