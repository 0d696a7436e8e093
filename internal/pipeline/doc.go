// Package pipeline provides a framework for executing report steps in sequence.
//
// A Run carries one registry dump file through its stages: loading the
// registry, validating every version tag, rendering one artifact per
// requested mode and, optionally, saving a snapshot to history. Each stage
// is a Step that receives the Run and records its results on it.
//
// Design decision: Steps are small values behind an interface so the CLI can
// assemble exactly the stages a command needs, and every stage gets the same
// logging, error recording and cancellation checks from Pipeline.Execute.
//
// The package supports single registries and batches with concurrency
// control using errgroup. Each run is single-threaded over its own
// immutable registry; only separate runs execute concurrently.
package pipeline
