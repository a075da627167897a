package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/tgienger/todo/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// CreateUser inserts a user. The caller supplies the id and password hash.
func (db *DB) CreateUser(id, username, name, passwordHash string) (*models.User, error) {
	_, err := db.Exec(`
		INSERT INTO users (id, username, name, password_hash) VALUES (?, ?, ?, ?)
	`, id, username, name, passwordHash)
	if err != nil {
		return nil, err
	}
	return db.GetUser(id)
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(id string) (*models.User, error) {
	u := &models.User{}
	err := db.QueryRow(`
		SELECT id, username, name, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.Name, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserCredentials returns the user and stored password hash for a username (case-insensitive)
func (db *DB) GetUserCredentials(username string) (*models.User, string, error) {
	u := &models.User{}
	var hash string
	err := db.QueryRow(`
		SELECT id, username, name, created_at, password_hash
		FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.Name, &u.CreatedAt, &hash)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return u, hash, nil
}

// UserExists reports whether the username is taken
func (db *DB) UserExists(username string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// RevokeToken records a token id as no longer valid
func (db *DB) RevokeToken(jti string, expiresAt time.Time) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
	`, jti, expiresAt.UTC())
	return err
}

// IsTokenRevoked reports whether a token id was revoked
func (db *DB) IsTokenRevoked(jti string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?", jti).Scan(&count)
	return count > 0, err
}

// PruneRevokedTokens drops revocations whose token has expired anyway
func (db *DB) PruneRevokedTokens(now time.Time) error {
	_, err := db.Exec("DELETE FROM revoked_tokens WHERE expires_at < ?", now.UTC())
	return err
}
