package session

import (
	"database/sql"
	"errors"
	"fmt"
)

// Storage keys, mirroring the dashboard's old localStorage entries.
const (
	keyAuthenticated = "admin_authenticated"
	keyToken         = "admin_token"
)

// SQLiteStore persists the session in a small key/value table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a session store on an open database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// InitDB creates the session schema.
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS admin_session (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create session table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load() (bool, string, error) {
	auth, err := s.get(keyAuthenticated)
	if err != nil {
		return false, "", err
	}
	token, err := s.get(keyToken)
	if err != nil {
		return false, "", err
	}
	return auth == "true", token, nil
}

func (s *SQLiteStore) Save(token string) error {
	if err := s.set(keyAuthenticated, "true"); err != nil {
		return err
	}
	return s.set(keyToken, token)
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM admin_session WHERE key IN (?, ?)`, keyAuthenticated, keyToken)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM admin_session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session key %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO admin_session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write session key %s: %w", key, err)
	}
	return nil
}
