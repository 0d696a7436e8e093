package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/stubreport/internal/model"
)

// DBFileName is the database file created inside the database directory.
const DBFileName = "stubreport.db"

// ErrSnapshotNotFound is returned when a snapshot ID does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotDB provides SQLite-based storage for registry snapshots.
type SnapshotDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// now returns the timestamp recorded for new snapshots.
	now func() time.Time
}

// Options configures SnapshotDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the snapshot database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SnapshotDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SnapshotDB{
		db:     db,
		dbPath: dbPath,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *SnapshotDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *SnapshotDB) Close() error {
	return sdb.db.Close()
}

func (sdb *SnapshotDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		entity_count INTEGER NOT NULL,
		registry_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name);
	CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON snapshots(fingerprint);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SnapshotRecord describes a stored snapshot without its entities.
type SnapshotRecord struct {
	// ID is the unique identifier of the snapshot in the database.
	ID int64

	// Name is the registry name.
	Name string

	// Fingerprint is the hex SHA3-256 of the snapshot's canonical JSON.
	Fingerprint string

	// Timestamp is when the snapshot was stored.
	Timestamp time.Time

	// EntityCount is the number of entities in the snapshot.
	EntityCount int
}

// StoredSnapshot is a snapshot record together with its entities.
type StoredSnapshot struct {
	SnapshotRecord

	// Snapshot holds the stored registry contents.
	Snapshot model.Snapshot
}

// Registry rebuilds the immutable registry from the stored snapshot.
func (s *StoredSnapshot) Registry() (*model.Registry, error) {
	return model.NewRegistry(s.Snapshot.Name, s.Snapshot.Entities)
}

// Fingerprint returns the hex SHA3-256 digest of the snapshot's JSON form.
// Entities of a registry snapshot are sorted by path and encoding/json
// sorts map keys, so equal registries always produce equal fingerprints.
func Fingerprint(snap model.Snapshot) (string, []byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), data, nil
}

// SaveSnapshot stores the registry under its name.
// If the latest stored snapshot with that name has the same fingerprint,
// nothing is inserted and its ID is returned with inserted=false.
func (sdb *SnapshotDB) SaveSnapshot(ctx context.Context, reg *model.Registry) (id int64, inserted bool, err error) {
	fingerprint, data, err := Fingerprint(reg.Snapshot())
	if err != nil {
		return 0, false, err
	}

	// The lookup and the insert share one transaction so concurrent saves of
	// the same registry cannot both insert.
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var latestID int64
	var latestFingerprint string
	err = tx.QueryRowContext(ctx,
		`SELECT id, fingerprint FROM snapshots WHERE name = ? ORDER BY id DESC LIMIT 1`,
		reg.Name(),
	).Scan(&latestID, &latestFingerprint)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return 0, false, fmt.Errorf("failed to query latest snapshot: %w", err)
	case latestFingerprint == fingerprint:
		if err = tx.Commit(); err != nil {
			return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return latestID, false, nil
	}

	result, err := tx.ExecContext(ctx, `
	INSERT INTO snapshots (name, fingerprint, timestamp, entity_count, registry_json)
	VALUES (?, ?, ?, ?, ?)
	`,
		reg.Name(),
		fingerprint,
		sdb.now().Format(time.RFC3339Nano),
		reg.Len(),
		string(data),
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to save snapshot: %w", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read snapshot id: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, true, nil
}

// LatestSnapshots returns up to n snapshots for name, newest first.
func (sdb *SnapshotDB) LatestSnapshots(ctx context.Context, name string, n int) ([]StoredSnapshot, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT id, name, fingerprint, timestamp, entity_count, registry_json
	FROM snapshots
	WHERE name = ?
	ORDER BY id DESC
	LIMIT ?
	`, name, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []StoredSnapshot
	for rows.Next() {
		s, err := scanStoredSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetSnapshotByID retrieves a snapshot by its database ID.
// It returns ErrSnapshotNotFound when no such snapshot exists.
func (sdb *SnapshotDB) GetSnapshotByID(ctx context.Context, id int64) (*StoredSnapshot, error) {
	row := sdb.db.QueryRowContext(ctx, `
	SELECT id, name, fingerprint, timestamp, entity_count, registry_json
	FROM snapshots
	WHERE id = ?
	`, id)

	s, err := scanStoredSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrSnapshotNotFound, id)
	}
	return s, err
}

// ListSnapshots returns the metadata of every snapshot stored for name, newest first.
// This is cheaper than LatestSnapshots when only history is displayed.
func (sdb *SnapshotDB) ListSnapshots(ctx context.Context, name string) ([]SnapshotRecord, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT id, name, fingerprint, timestamp, entity_count
	FROM snapshots
	WHERE name = ?
	ORDER BY id DESC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		var timestamp string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Fingerprint, &timestamp, &rec.EntityCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		rec.Timestamp = parseTimestamp(timestamp)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListRegistryNames returns every registry name with stored snapshots.
func (sdb *SnapshotDB) ListRegistryNames(ctx context.Context) ([]string, error) {
	rows, err := sdb.db.QueryContext(ctx, `SELECT DISTINCT name FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan registry name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoredSnapshot(row rowScanner) (*StoredSnapshot, error) {
	var s StoredSnapshot
	var timestamp, registryJSON string

	err := row.Scan(&s.ID, &s.Name, &s.Fingerprint, &timestamp, &s.EntityCount, &registryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	s.Timestamp = parseTimestamp(timestamp)
	if err := json.Unmarshal([]byte(registryJSON), &s.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %d: %w", s.ID, err)
	}
	return &s, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by SaveSnapshot
	time.RFC3339,              // RFC3339 without fractional seconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
