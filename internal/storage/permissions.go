// internal/storage/permissions.go
package storage

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"libracirc/internal/domain"
)

// PermissionStore reads staff accounts and their granted permissions. It
// backs both the override permission gate and staff authentication.
type PermissionStore struct {
	db *sql.DB
}

// NewPermissionStore creates a permission store over the given database.
func NewPermissionStore(db *sql.DB) *PermissionStore {
	return &PermissionStore{db: db}
}

// HasPermission reports whether the staff member holds the named permission.
func (s *PermissionStore) HasPermission(ctx context.Context, staffID uuid.UUID, permission string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM staff_permissions
			WHERE staff_id = $1 AND permission = $2
		)
	`
	var granted bool
	if err := s.db.QueryRowContext(ctx, query, staffID, permission).Scan(&granted); err != nil {
		return false, fmt.Errorf("check staff permission: %w", err)
	}
	return granted, nil
}

// Authenticate verifies a staff member's credentials and returns their id.
// Passwords are stored as salted Argon2id hashes.
func (s *PermissionStore) Authenticate(ctx context.Context, username, password string) (uuid.UUID, error) {
	query := `
		SELECT id, password_hash, password_salt
		FROM staff
		WHERE username = $1 AND active
	`
	var staffID uuid.UUID
	var hash, salt string
	err := s.db.QueryRowContext(ctx, query, username).Scan(&staffID, &hash, &salt)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, fmt.Errorf("staff account %s: %w", username, domain.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("get staff account: %w", err)
	}

	ok, err := verifyPassword(password, salt, hash)
	if err != nil {
		return uuid.Nil, fmt.Errorf("verify staff password: %w", err)
	}
	if !ok {
		return uuid.Nil, fmt.Errorf("staff account %s: %w", username, domain.ErrInvalidCredentials)
	}

	return staffID, nil
}

// verifyPassword compares a password with a salted Argon2id hash.
func verifyPassword(password, salt, hash string) (bool, error) {
	decodedSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	decodedHash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	comparisonHash := argon2.IDKey([]byte(password), decodedSalt, 1, 64*1024, 4, 32)

	return string(decodedHash) == string(comparisonHash), nil
}
