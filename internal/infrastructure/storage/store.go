package storage

import (
	"crypto/cipher"
	"database/sql"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	ts INTEGER NOT NULL,
	kind TEXT NOT NULL,
	payload_enc TEXT NOT NULL,
	risk_score REAL
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
CREATE TABLE IF NOT EXISTS meta (k TEXT PRIMARY KEY, v TEXT);
`

// Record is one decrypted row of the event log.
type Record struct {
	ID        string
	TS        int64
	Kind      string
	Payload   []byte
	RiskScore *float64
}

// Store is an encrypted, prunable event log backed by a single SQLite file.
// It exclusively owns its connection and derived key; one mutex serializes
// insert, get, and prune. Callers needing parallelism must queue outside.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	aead   cipher.AEAD
	logger *zap.Logger
	closed bool
}

// Open opens or creates the store at path, derives the cipher key from
// secret, and ensures the schema exists. Safe to call on an existing store.
func Open(path string, secret []byte, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStorageError("open database").WithCause(err)
	}
	// Single writer: the store serializes everything through one connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.NewStorageError("configure database").WithCause(err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewStorageError("create schema").WithCause(err)
	}

	aead, err := newAEAD(deriveKey(secret))
	if err != nil {
		db.Close()
		return nil, errors.NewCryptoError("initialize cipher").WithCause(err)
	}

	logger.Info("secure store opened", zap.String("path", path))
	return &Store{db: db, aead: aead, logger: logger}, nil
}

// InsertEvent encrypts payload and upserts the row keyed by id: an existing
// row with the same id is fully replaced.
func (s *Store) InsertEvent(id string, ts int64, kind string, payload []byte, riskScore *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrStoreClosed
	}

	enc, err := encrypt(s.aead, payload)
	if err != nil {
		return errors.NewCryptoError("encrypt event payload").WithCause(err)
	}
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO events (id, ts, kind, payload_enc, risk_score) VALUES (?, ?, ?, ?, ?)",
		id, ts, kind, enc, riskScore,
	); err != nil {
		s.logger.Error("event insert failed", zap.String("event_id", id), zap.Error(err))
		return errors.NewStorageError("insert event").WithCause(err)
	}
	return nil
}

// GetEvent looks up one record by id and decrypts its payload. A missing id
// yields (nil, nil); a blob that fails authentication yields an error.
func (s *Store) GetEvent(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.ErrStoreClosed
	}

	var (
		rec   = Record{ID: id}
		enc   string
		score sql.NullFloat64
	)
	err := s.db.QueryRow(
		"SELECT ts, kind, payload_enc, risk_score FROM events WHERE id = ?", id,
	).Scan(&rec.TS, &rec.Kind, &enc, &score)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("query event").WithCause(err)
	}

	rec.Payload, err = decrypt(s.aead, enc)
	if err != nil {
		s.logger.Warn("event payload rejected", zap.String("event_id", id), zap.Error(err))
		return nil, err
	}
	if score.Valid {
		rec.RiskScore = &score.Float64
	}
	return &rec, nil
}

// PruneBefore deletes every record with ts strictly below the cutoff and
// reports how many were removed.
func (s *Store) PruneBefore(ts int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.ErrStoreClosed
	}

	res, err := s.db.Exec("DELETE FROM events WHERE ts < ?", ts)
	if err != nil {
		return 0, errors.NewStorageError("prune events").WithCause(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewStorageError("count pruned events").WithCause(err)
	}
	if n > 0 {
		s.logger.Info("pruned events", zap.Int64("count", n), zap.Int64("cutoff_ts", ts))
	}
	return n, nil
}

// Stats reports the row count and timestamp span of the log.
func (s *Store) Stats() (count, oldestTS, newestTS int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, 0, errors.ErrStoreClosed
	}

	err = s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(MIN(ts), 0), COALESCE(MAX(ts), 0) FROM events",
	).Scan(&count, &oldestTS, &newestTS)
	if err != nil {
		return 0, 0, 0, errors.NewStorageError("query store stats").WithCause(err)
	}
	return count, oldestTS, newestTS, nil
}

// Close releases the underlying connection. Further calls fail with
// ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
