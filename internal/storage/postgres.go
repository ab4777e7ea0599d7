package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"dailydigest/internal/logger"
)

// PostgresArchive keeps a per-date copy of each generated digest so the
// single JSON output file can be overwritten freely.
type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	archive := &PostgresArchive{db: db}
	if err := archive.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("postgres archive connected")
	return archive, nil
}

func (a *PostgresArchive) ensureSchema() error {
	const query = `
		CREATE TABLE IF NOT EXISTS digest_archive (
			date TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("create digest_archive table: %w", err)
	}
	return nil
}

// ArchiveDigest upserts the digest payload for its date.
func (a *PostgresArchive) ArchiveDigest(date string, digest interface{}) error {
	payload, err := json.Marshal(digest)
	if err != nil {
		return fmt.Errorf("encode digest for archive: %w", err)
	}
	const query = `
		INSERT INTO digest_archive (date, payload)
		VALUES ($1, $2)
		ON CONFLICT (date)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`
	if _, err := a.db.Exec(query, date, payload); err != nil {
		return fmt.Errorf("archive digest %s: %w", date, err)
	}
	return nil
}

// LoadArchivedDigest reads the stored payload for a date into v.
// Returns false when no row exists.
func (a *PostgresArchive) LoadArchivedDigest(date string, v interface{}) (bool, error) {
	var payload []byte
	err := a.db.QueryRow(
		`SELECT payload FROM digest_archive WHERE date = $1`, date,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load archived digest %s: %w", date, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("decode archived digest %s: %w", date, err)
	}
	return true, nil
}

func (a *PostgresArchive) Close() error {
	return a.db.Close()
}
