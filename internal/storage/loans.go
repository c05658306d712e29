// internal/storage/loans.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"libracirc/internal/domain"
)

// LoanStore reads loan history and persists finalised loans.
type LoanStore struct {
	db *sql.DB
}

// NewLoanStore creates a loan store over the given database.
func NewLoanStore(db *sql.DB) *LoanStore {
	return &LoanStore{db: db}
}

// HasOpenLoan reports whether the item already has an open loan.
func (s *LoanStore) HasOpenLoan(ctx context.Context, itemID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE item_id = $1 AND status = 'Open'
		)
	`
	var open bool
	if err := s.db.QueryRowContext(ctx, query, itemID).Scan(&open); err != nil {
		return false, fmt.Errorf("check open loan: %w", err)
	}
	return open, nil
}

// CountActiveLoans counts the patron's open loans of the controlling loan
// type, for item-limit checks.
func (s *LoanStore) CountActiveLoans(ctx context.Context, userID, loanTypeID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM loans l
		JOIN items i ON i.id = l.item_id
		WHERE l.user_id = $1
		  AND l.status = 'Open'
		  AND COALESCE(i.temporary_loan_type_id, i.permanent_loan_type_id) = $2
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, loanTypeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active loans: %w", err)
	}
	return count, nil
}

// GetOpenLoan retrieves the open loan for an item.
func (s *LoanStore) GetOpenLoan(ctx context.Context, itemID uuid.UUID) (domain.Loan, error) {
	query := `
		SELECT id, item_id, user_id, proxy_user_id, loan_date, due_date,
		       renewal_count, status, action, policy_id, checkout_service_point_id
		FROM loans
		WHERE item_id = $1 AND status = 'Open'
	`
	var loan domain.Loan
	var proxyUserID, servicePointID uuid.NullUUID
	err := s.db.QueryRowContext(ctx, query, itemID).Scan(
		&loan.ID,
		&loan.ItemID,
		&loan.UserID,
		&proxyUserID,
		&loan.LoanDate,
		&loan.DueDate,
		&loan.RenewalCount,
		&loan.Status,
		&loan.Action,
		&loan.PolicyID,
		&servicePointID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Loan{}, fmt.Errorf("open loan for item %s: %w", itemID, domain.ErrNotFound)
		}
		return domain.Loan{}, fmt.Errorf("get open loan: %w", err)
	}
	loan.ProxyUserID = proxyUserID.UUID
	loan.CheckoutServicePointID = servicePointID.UUID

	return loan, nil
}

// CreateLoan persists a finalised checkout.
func (s *LoanStore) CreateLoan(ctx context.Context, loan domain.Loan) error {
	query := `
		INSERT INTO loans (id, item_id, user_id, proxy_user_id, loan_date, due_date,
		                   renewal_count, status, action, policy_id, checkout_service_point_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		loan.ID,
		loan.ItemID,
		loan.UserID,
		nullable(loan.ProxyUserID),
		loan.LoanDate,
		loan.DueDate,
		loan.RenewalCount,
		loan.Status,
		loan.Action,
		loan.PolicyID,
		nullable(loan.CheckoutServicePointID),
	)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// UpdateLoan persists a finalised renewal.
func (s *LoanStore) UpdateLoan(ctx context.Context, loan domain.Loan) error {
	query := `
		UPDATE loans
		SET due_date = $1, renewal_count = $2, action = $3, policy_id = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		loan.DueDate,
		loan.RenewalCount,
		loan.Action,
		loan.PolicyID,
		loan.ID,
	)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("loan %s: %w", loan.ID, domain.ErrNotFound)
	}
	return nil
}

// nullable maps the zero uuid onto SQL NULL.
func nullable(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
