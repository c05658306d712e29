// internal/domain/user.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a patron or proxy patron record. A zero-value User stands for a
// user that could not be found.
type User struct {
	ID             uuid.UUID
	Barcode        string
	Active         bool
	ExpirationDate time.Time
	PatronGroupID  uuid.UUID
}

// IsNotFound reports whether the user record is absent.
func (u User) IsNotFound() bool {
	return u.ID == uuid.Nil
}

// IsInactive reports whether the user may not take part in circulation,
// either because the record is deactivated or because it has expired.
func (u User) IsInactive(now time.Time) bool {
	if !u.Active {
		return true
	}
	return !u.ExpirationDate.IsZero() && now.After(u.ExpirationDate)
}

// ProxyRelationship links a proxy user acting on behalf of a sponsor.
type ProxyRelationship struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ProxyUserID    uuid.UUID
	Active         bool
	ExpirationDate time.Time
}

// IsValid reports whether the relationship currently authorises the proxy.
func (r ProxyRelationship) IsValid(now time.Time) bool {
	if !r.Active {
		return false
	}
	return r.ExpirationDate.IsZero() || now.Before(r.ExpirationDate)
}

// PatronBlock is an automated restriction placed on a patron account.
type PatronBlock struct {
	Kind           string
	Message        string
	BlocksCheckOut bool
	BlocksRenewal  bool
}
