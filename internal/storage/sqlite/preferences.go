package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yegors/wx-dash/pkg/logger"
	_ "modernc.org/sqlite"
)

// PreferenceRecord is one stored key-value pair
type PreferenceRecord struct {
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PreferenceStorage is a SQLite-backed key-value store, one namespace per
// browser session
type PreferenceStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewPreferenceStorage opens (or creates) the database at dbPath
func NewPreferenceStorage(dbPath string, log *logger.Logger) (*PreferenceStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &PreferenceStorage{
		db:     db,
		logger: storageLogger,
	}, nil
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (namespace, key)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create preferences table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_preferences_updated_at ON preferences(updated_at)`)
	if err != nil {
		return fmt.Errorf("failed to create updated_at index: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *PreferenceStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value stored under namespace/key. The bool is false when
// nothing is stored.
func (s *PreferenceStorage) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

// Set stores value under namespace/key, replacing any previous value
func (s *PreferenceStorage) Set(ctx context.Context, namespace, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, namespace, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store preference %s/%s: %w", namespace, key, err)
	}

	s.logger.Debug("Stored preference",
		logger.String("namespace", namespace),
		logger.String("key", key))
	return nil
}

// List returns every record of a namespace ordered by key
func (s *PreferenceStorage) List(ctx context.Context, namespace string) ([]*PreferenceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace, key, value, updated_at FROM preferences WHERE namespace = ? ORDER BY key`,
		namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	var records []*PreferenceRecord
	for rows.Next() {
		r := &PreferenceRecord{}
		if err := rows.Scan(&r.Namespace, &r.Key, &r.Value, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Ping checks the database connection
func (s *PreferenceStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
