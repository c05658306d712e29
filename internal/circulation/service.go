// internal/circulation/service.go
package circulation

import (
	"context"

	"github.com/google/uuid"

	"libracirc/internal/domain"
	"libracirc/internal/eventlog"
	"libracirc/internal/policy"
	"libracirc/internal/rules"
)

// Service defines the interface for the circulation service.
type Service interface {
	CheckOut(ctx context.Context, req CheckOutRequest) (*domain.Loan, error)
	Renew(ctx context.Context, req RenewRequest) (*domain.Loan, error)
}

// ItemStore supplies item records and commits the item status transition on
// finalize.
type ItemStore interface {
	GetItemByBarcode(ctx context.Context, barcode string) (domain.Item, error)
	GetRequestQueue(ctx context.Context, itemID uuid.UUID) (domain.RequestQueue, error)
	UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status domain.ItemStatus) error
}

// UserStore supplies patron and proxy records.
type UserStore interface {
	GetUserByBarcode(ctx context.Context, barcode string) (domain.User, error)
	GetProxyRelationship(ctx context.Context, userID, proxyUserID uuid.UUID) (domain.ProxyRelationship, error)
}

// PolicyStore supplies loan policies and fixed due date schedules.
type PolicyStore interface {
	GetLoanPolicy(ctx context.Context, id uuid.UUID) (policy.LoanPolicy, error)
	GetFixedDueDateSchedule(ctx context.Context, id uuid.UUID) (policy.FixedDueDateSchedule, error)
}

// RuleSource supplies the current ordered circulation rule table. Caching,
// if any, is the source's responsibility.
type RuleSource interface {
	Rules(ctx context.Context) ([]rules.Rule, error)
}

// LoanStore supplies loan history and persists finalised loans.
type LoanStore interface {
	HasOpenLoan(ctx context.Context, itemID uuid.UUID) (bool, error)
	CountActiveLoans(ctx context.Context, userID, loanTypeID uuid.UUID) (int, error)
	GetOpenLoan(ctx context.Context, itemID uuid.UUID) (domain.Loan, error)
	CreateLoan(ctx context.Context, loan domain.Loan) error
	UpdateLoan(ctx context.Context, loan domain.Loan) error
}

// PatronBlockSource supplies the active automated blocks for a patron.
type PatronBlockSource interface {
	ActiveBlocks(ctx context.Context, userID uuid.UUID) ([]domain.PatronBlock, error)
}

// EventLog records circulation facts for downstream consumers.
type EventLog interface {
	Append(ctx context.Context, loanID uuid.UUID, expectedVersion int, events []eventlog.Event) error
	CurrentVersion(ctx context.Context, loanID uuid.UUID) (int, error)
}

// StaffAuthenticator verifies staff credentials and resolves the staff id
// used by the override permission check.
type StaffAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (uuid.UUID, error)
}
