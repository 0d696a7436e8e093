// Package report renders documentation registries into report artifacts.
//
// This package contains writers for each artifact:
//   - ChangelogWriter: flat "Added <type> <path>" changelog
//   - CoverageWriter: sorted, de-duplicated "<namespace>.<method>" manifest
//   - FeatureWriter: version-grouped feature changelog as a data literal
//   - FeatureJSONWriter: the same version groups as JSON
//   - IndexWriter / HTMLIndexWriter: the type index page in Markdown or HTML
//   - DiffWriter: added/removed entities between two registry snapshots
//
// Generate is the single entry point used by the CLI and the pipeline. It
// takes a registry, an output directory and a Mode, writes the artifact and
// returns an Artifact descriptor.
//
// Design decision: Writers are pure folds over an immutable registry. They
// render into an io.Writer and return the byte count, which keeps them easy
// to test with a bytes.Buffer and lets Generate decide where bytes end up.
package report
