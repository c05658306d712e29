// internal/storage/users.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"libracirc/internal/domain"
)

// UserStore reads patron and proxy relationship records.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store over the given database.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// GetUserByBarcode retrieves a patron record.
func (s *UserStore) GetUserByBarcode(ctx context.Context, barcode string) (domain.User, error) {
	query := `
		SELECT id, barcode, active, COALESCE(expiration_date, 'epoch'::timestamptz), patron_group_id
		FROM users
		WHERE barcode = $1
	`
	var user domain.User
	err := s.db.QueryRowContext(ctx, query, barcode).Scan(
		&user.ID,
		&user.Barcode,
		&user.Active,
		&user.ExpirationDate,
		&user.PatronGroupID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, fmt.Errorf("user with barcode %s: %w", barcode, domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("get user by barcode: %w", err)
	}

	// The epoch placeholder stands for "never expires".
	if user.ExpirationDate.Unix() == 0 {
		user.ExpirationDate = time.Time{}
	}

	return user, nil
}

// GetProxyRelationship retrieves the relationship authorising a proxy to
// act for a sponsor.
func (s *UserStore) GetProxyRelationship(ctx context.Context, userID, proxyUserID uuid.UUID) (domain.ProxyRelationship, error) {
	query := `
		SELECT id, user_id, proxy_user_id, active, COALESCE(expiration_date, 'epoch'::timestamptz)
		FROM proxy_relationships
		WHERE user_id = $1 AND proxy_user_id = $2
	`
	var rel domain.ProxyRelationship
	err := s.db.QueryRowContext(ctx, query, userID, proxyUserID).Scan(
		&rel.ID,
		&rel.UserID,
		&rel.ProxyUserID,
		&rel.Active,
		&rel.ExpirationDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ProxyRelationship{}, fmt.Errorf(
				"proxy relationship for user %s and proxy %s: %w", userID, proxyUserID, domain.ErrNotFound)
		}
		return domain.ProxyRelationship{}, fmt.Errorf("get proxy relationship: %w", err)
	}

	if rel.ExpirationDate.Unix() == 0 {
		rel.ExpirationDate = time.Time{}
	}

	return rel, nil
}
