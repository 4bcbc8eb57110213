package state

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/gate"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS state_versions (
	version_id      TEXT PRIMARY KEY,
	parent_id       TEXT,
	tick            INTEGER NOT NULL,
	weights         BLOB NOT NULL,
	counters        TEXT NOT NULL,
	membrane        BLOB NOT NULL,
	mood            REAL,
	mood_decayed_at TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES state_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_state (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	version_id      TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES state_versions(version_id)
);

CREATE TABLE IF NOT EXISTS decision_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id      TEXT NOT NULL,
	tick            INTEGER NOT NULL,
	idle            INTEGER NOT NULL,
	impulse_ids     TEXT NOT NULL,
	intensity_level INTEGER NOT NULL,
	mood            REAL NOT NULL,
	reason          TEXT,
	record_json     TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES state_versions(version_id)
);

CREATE TABLE IF NOT EXISTS feedback_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id      TEXT NOT NULL,
	impulse_id      INTEGER NOT NULL,
	signal          INTEGER NOT NULL,
	source          TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES state_versions(version_id)
);
`

// Migrate creates the tables on db if they do not exist.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// #endregion schema

// #region store-struct
// Store manages versioned engine state in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations. Every transaction takes
// the write lock up front so two ticks against the same file serialize.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already-open database. The caller owns migrations.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for read-side queries (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region create-initial
// CreateInitialState stores rec as a new root version and makes it active. An
// existing active version is kept in the table for rollback.
func (s *Store) CreateInitialState(rec StateRecord) (StateRecord, error) {
	tx, err := s.Begin()
	if err != nil {
		return StateRecord{}, err
	}
	defer tx.Rollback()

	rec.ParentID = ""
	rec, err = tx.Put(rec)
	if err != nil {
		return StateRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return StateRecord{}, err
	}
	return rec, nil
}

// #endregion create-initial

// #region get-current
// GetCurrent reads the active state version. An empty store returns ErrNoState.
func (s *Store) GetCurrent() (StateRecord, error) {
	return current(s.db)
}

// GetVersion retrieves a specific state version by ID.
func (s *Store) GetVersion(id string) (StateRecord, error) {
	return version(s.db, id)
}

// #endregion get-current

// #region commit-state
// CommitState inserts rec and moves the active pointer to it in one transaction.
func (s *Store) CommitState(rec StateRecord) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Put(rec); err != nil {
		return err
	}
	return tx.Commit()
}

// #endregion commit-state

// #region rollback
// Rollback sets the active pointer to a previous version.
func (s *Store) Rollback(targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM state_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s not found", targetVersionID)
	}

	_, err = s.db.Exec(
		`INSERT INTO active_state (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		targetVersionID,
	)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list-versions
// ListVersions returns up to limit versions, newest first.
func (s *Store) ListVersions(limit int) ([]StateRecord, error) {
	rows, err := s.db.Query(`SELECT `+columns+` FROM state_versions ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []StateRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-versions

// #region tx
// Tx is an exclusive read-modify-write over the active version. Rollback after
// Commit is a no-op, so callers can always defer it.
type Tx struct {
	tx *sql.Tx
}

// Begin starts an immediate transaction.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Current reads the active version inside the transaction.
func (t *Tx) Current() (StateRecord, error) {
	return current(t.tx)
}

// Put inserts rec as a new version and makes it active. A missing VersionID or
// CreatedAt is filled in; the stored record is returned.
func (t *Tx) Put(rec StateRecord) (StateRecord, error) {
	if rec.VersionID == "" {
		rec.VersionID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	counters, err := json.Marshal(rec.Counters)
	if err != nil {
		return StateRecord{}, fmt.Errorf("marshal counters: %w", err)
	}

	var parentPtr interface{}
	if rec.ParentID != "" {
		parentPtr = rec.ParentID
	}
	var decayedPtr interface{}
	if !rec.MoodDecayedAt.IsZero() {
		decayedPtr = rec.MoodDecayedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = t.tx.Exec(
		`INSERT INTO state_versions (version_id, parent_id, tick, weights, counters, membrane, mood, mood_decayed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.VersionID, parentPtr, int64(rec.Tick), encodeFloats(rec.Weights), string(counters),
		encodeFloats(rec.Membrane), rec.Mood, decayedPtr, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return StateRecord{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = t.tx.Exec(
		`INSERT INTO active_state (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		rec.VersionID,
	)
	if err != nil {
		return StateRecord{}, fmt.Errorf("set active: %w", err)
	}
	return rec, nil
}

// Exec runs a statement inside the transaction, for log rows that must commit
// with the version they describe.
func (t *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return t.tx.Exec(query, args...)
}

// Commit makes the transaction durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback abandons the transaction.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// #endregion tx

// #region scan
const columns = `version_id, parent_id, tick, weights, counters, membrane, mood, mood_decayed_at, created_at`

type querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func current(q querier) (StateRecord, error) {
	var versionID string
	err := q.QueryRow(`SELECT version_id FROM active_state WHERE id = 1`).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return StateRecord{}, ErrNoState
	}
	if err != nil {
		return StateRecord{}, fmt.Errorf("get active: %w", err)
	}
	return version(q, versionID)
}

func version(q querier, id string) (StateRecord, error) {
	rec, err := scanRecord(q.QueryRow(`SELECT `+columns+` FROM state_versions WHERE version_id = ?`, id))
	if err != nil {
		return StateRecord{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}

func scanRecord(row scanner) (StateRecord, error) {
	var rec StateRecord
	var parentID, decayedStr sql.NullString
	var tick int64
	var weightsBlob, membraneBlob []byte
	var countersJSON, createdStr string
	var mood sql.NullFloat64

	err := row.Scan(&rec.VersionID, &parentID, &tick, &weightsBlob, &countersJSON,
		&membraneBlob, &mood, &decayedStr, &createdStr)
	if err != nil {
		return StateRecord{}, fmt.Errorf("scan row: %w", err)
	}

	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	if tick < 0 {
		return StateRecord{}, fmt.Errorf("%w: negative tick %d", ErrCorrupt, tick)
	}
	rec.Tick = uint64(tick)
	if rec.Weights, err = decodeFloats(weightsBlob); err != nil {
		return StateRecord{}, fmt.Errorf("weights: %w", err)
	}
	if rec.Membrane, err = decodeFloats(membraneBlob); err != nil {
		return StateRecord{}, fmt.Errorf("membrane: %w", err)
	}
	if err := json.Unmarshal([]byte(countersJSON), &rec.Counters); err != nil {
		return StateRecord{}, fmt.Errorf("%w: counters: %v", ErrCorrupt, err)
	}
	if !mood.Valid {
		return StateRecord{}, fmt.Errorf("%w: mood is null", ErrCorrupt)
	}
	rec.Mood = mood.Float64
	if decayedStr.Valid {
		if rec.MoodDecayedAt, err = time.Parse(time.RFC3339Nano, decayedStr.String); err != nil {
			return StateRecord{}, fmt.Errorf("%w: mood_decayed_at: %v", ErrCorrupt, err)
		}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	if rec.Counters == nil {
		rec.Counters = []gate.Counter{}
	}
	return rec, nil
}

// #endregion scan

// #region vector-encoding
func encodeFloats(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeFloats(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: blob length %d is not a multiple of 8", ErrCorrupt, len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}

// #endregion vector-encoding
