package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// WebSessionStorage implements fiber.Storage on top of PostgreSQL so that
// browser sessions (and the Telegram session tokens they carry) survive
// process restarts.
type WebSessionStorage struct {
	db *sqlx.DB
}

// NewWebSessionStorage creates a new PostgreSQL-backed session storage
func NewWebSessionStorage(db *sqlx.DB) *WebSessionStorage {
	return &WebSessionStorage{db: db}
}

// Get returns the session payload for key, or nil when the key is unknown
// or expired. A nil result is not an error per the fiber.Storage contract.
func (s *WebSessionStorage) Get(key string) ([]byte, error) {
	var row struct {
		Data      []byte       `db:"data"`
		ExpiresAt sql.NullTime `db:"expires_at"`
	}

	query := `SELECT data, expires_at FROM web_sessions WHERE id = $1`
	if err := s.db.Get(&row, query, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if row.ExpiresAt.Valid && row.ExpiresAt.Time.Before(time.Now()) {
		// Lazy expiry: drop the stale row and report a miss.
		_ = s.Delete(key)
		return nil, nil
	}

	return row.Data, nil
}

// Set stores the session payload under key. exp == 0 means no expiry.
func (s *WebSessionStorage) Set(key string, val []byte, exp time.Duration) error {
	var expiresAt sql.NullTime
	if exp > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(exp), Valid: true}
	}

	query := `
		INSERT INTO web_sessions (id, data, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = now()
	`

	_, err := s.db.Exec(query, key, val, expiresAt)
	return err
}

// Delete removes the session for key; unknown keys are not an error.
func (s *WebSessionStorage) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM web_sessions WHERE id = $1`, key)
	return err
}

// Reset removes all sessions
func (s *WebSessionStorage) Reset() error {
	_, err := s.db.Exec(`DELETE FROM web_sessions`)
	return err
}

// Close is a no-op; the shared database pool is owned by the caller.
func (s *WebSessionStorage) Close() error {
	return nil
}
