package canc

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/hyperengineering/canc/internal/store/migrations"
)

// SchemaVersion is the snapshot database schema this build writes.
const SchemaVersion = "2"

const metadataKeyDescription = "description"

// Store manages the local SQLite database of model snapshots.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Variant      Variant   `json:"variant"`
	RecordsSeen  int       `json:"records_seen"`
	ConceptCount int       `json:"concept_count"`
	RuleCount    int       `json:"rule_count"`
	Label        string    `json:"label,omitempty"`
}

// StoreStats contains snapshot database statistics.
type StoreStats struct {
	SnapshotCount int       `json:"snapshot_count"`
	LastSnapshot  time.Time `json:"last_snapshot,omitempty"`
	SchemaVersion string    `json:"schema_version"`
	Path          string    `json:"path"`
}

// NewStore opens or creates a snapshot store.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate schema")
	}
	return s, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Wrap(err, "store: set goose dialect")
	}
	if err := goose.Up(s.db, "."); err != nil {
		return errors.Wrap(err, "store: run migrations")
	}

	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, SchemaVersion)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveSnapshot stores m and returns its description.
func (s *Store) SaveSnapshot(ctx context.Context, m Model, label string) (*SnapshotInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "store: encode snapshot")
	}

	info := &SnapshotInfo{
		ID:           ulid.Make().String(),
		CreatedAt:    time.Now().UTC(),
		Variant:      m.Variant,
		RecordsSeen:  m.Stats.RecordsSeen,
		ConceptCount: len(m.Concepts),
		RuleCount:    len(m.Rules),
		Label:        label,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, created_at, variant, records_seen, concept_count, rule_count, label, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		info.ID,
		info.CreatedAt.Format(time.RFC3339Nano),
		string(info.Variant),
		info.RecordsSeen,
		info.ConceptCount,
		info.RuleCount,
		info.Label,
		string(payload),
	)
	if err != nil {
		return nil, errors.Wrap(err, "store: insert snapshot")
	}
	return info, nil
}

// GetSnapshot loads a snapshot by ID.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Model, *SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, nil, ErrClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, variant, records_seen, concept_count, rule_count, label, payload
		FROM snapshots WHERE id = ?
	`, id)
	return scanSnapshot(row)
}

// LatestSnapshot loads the most recent snapshot.
// Returns ErrSnapshotNotFound when the store is empty.
func (s *Store) LatestSnapshot(ctx context.Context) (*Model, *SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, nil, ErrClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, variant, records_seen, concept_count, rule_count, label, payload
		FROM snapshots ORDER BY id DESC LIMIT 1
	`)
	return scanSnapshot(row)
}

// ListSnapshots returns snapshot descriptions, newest first. A non-positive
// limit returns every snapshot.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	query := `
		SELECT id, created_at, variant, records_seen, concept_count, rule_count, label
		FROM snapshots ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "store: list snapshots")
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		info, err := scanSnapshotInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes a snapshot by ID.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "store: delete snapshot")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

// SetMetadata stores a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMetadata returns a metadata value, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrClosed
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetDescription records a human readable description of the model.
func (s *Store) SetDescription(desc string) error {
	return s.SetMetadata(metadataKeyDescription, desc)
}

// Description returns the model description.
func (s *Store) Description() (string, error) {
	return s.GetMetadata(metadataKeyDescription)
}

// Stats returns store statistics.
func (s *Store) Stats() (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		return nil, err
	}

	var last sql.NullString
	_ = s.db.QueryRow("SELECT MAX(created_at) FROM snapshots").Scan(&last)

	stats := &StoreStats{
		SnapshotCount: count,
		SchemaVersion: SchemaVersion,
		Path:          s.path,
	}
	if last.Valid {
		stats.LastSnapshot, _ = time.Parse(time.RFC3339Nano, last.String)
	}
	return stats, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// scanner abstracts the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshotInfo(sc scanner, extra ...any) (*SnapshotInfo, error) {
	var (
		info      SnapshotInfo
		createdAt string
		variant   string
	)
	dest := append([]any{
		&info.ID,
		&createdAt,
		&variant,
		&info.RecordsSeen,
		&info.ConceptCount,
		&info.RuleCount,
		&info.Label,
	}, extra...)

	err := sc.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	info.Variant = Variant(variant)
	info.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &info, nil
}

func scanSnapshot(sc scanner) (*Model, *SnapshotInfo, error) {
	var payload string
	info, err := scanSnapshotInfo(sc, &payload)
	if err != nil {
		return nil, nil, err
	}

	var m Model
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, nil, errors.Wrapf(err, "store: decode snapshot %s", info.ID)
	}
	return &m, info, nil
}
