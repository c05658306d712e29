// internal/domain/loan.go
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidCredentials is returned when staff credentials fail verification.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusOpen   LoanStatus = "Open"
	LoanStatusClosed LoanStatus = "Closed"
)

// Loan actions record the circulation operation that produced the current
// state of the loan.
const (
	LoanActionCheckedOut = "checkedout"
	LoanActionRenewed    = "renewed"
)

// Loan is a checkout of one item to one patron.
type Loan struct {
	ID                     uuid.UUID
	ItemID                 uuid.UUID
	UserID                 uuid.UUID
	ProxyUserID            uuid.UUID
	LoanDate               time.Time
	DueDate                time.Time
	RenewalCount           int
	Status                 LoanStatus
	Action                 string
	PolicyID               uuid.UUID
	CheckoutServicePointID uuid.UUID
}

// Renew returns a copy of the loan extended to the new due date under the
// given policy. The original loan value is left untouched.
func (l Loan) Renew(dueDate time.Time, policyID uuid.UUID) Loan {
	l.DueDate = dueDate
	l.PolicyID = policyID
	l.RenewalCount++
	l.Action = LoanActionRenewed
	return l
}
