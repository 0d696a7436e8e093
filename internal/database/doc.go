// Package database provides SQLite-based snapshot history for stubreport.
//
// Each successful run can store the registry it rendered. The compare
// command later loads two stored snapshots of the same registry name and
// reports which entities were added or removed between them.
//
// Snapshots are fingerprinted with SHA3-256 over their canonical JSON, and
// a snapshot whose fingerprint equals the latest stored one for that name
// is not stored again, so re-running an unchanged build leaves history alone.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the
// history is a single local file and the driver is CGO-free, which keeps
// cross-compilation trivial. WAL mode lets compare read while a batch run
// writes.
package database
