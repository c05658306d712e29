// internal/circulation/domain.go
package circulation

import (
	"time"

	"github.com/google/uuid"

	"libracirc/internal/domain"
	"libracirc/internal/policy"
	"libracirc/internal/validation"
)

// LoanRecords is the in-progress transaction state: the loan being built
// together with every related record the validators read.
type LoanRecords struct {
	Loan         domain.Loan
	Item         domain.Item
	User         domain.User
	ProxyUser    domain.User
	RequestQueue domain.RequestQueue
	Policy       policy.LoanPolicy
}

// CheckOutRequest is one checkout-by-barcode transaction.
type CheckOutRequest struct {
	ItemBarcode      string
	UserBarcode      string
	ProxyUserBarcode string
	ServicePointID   uuid.UUID

	// LoanDate defaults to the system date when zero.
	LoanDate time.Time

	// DueDate is honoured only when the item-not-loanable block is
	// overridden; the policy cannot produce one in that case.
	DueDate time.Time

	Overrides validation.BlockOverrides
	StaffID   uuid.UUID
}

// RenewRequest is one renew-by-barcode transaction.
type RenewRequest struct {
	ItemBarcode string
	UserBarcode string
}

// LoanCheckedOutEvent is logged when a checkout is finalised.
type LoanCheckedOutEvent struct {
	LoanID   uuid.UUID `json:"loan_id"`
	ItemID   uuid.UUID `json:"item_id"`
	UserID   uuid.UUID `json:"user_id"`
	PolicyID uuid.UUID `json:"policy_id"`
	DueDate  time.Time `json:"due_date"`
}

// LoanRenewedEvent is logged when a renewal is finalised.
type LoanRenewedEvent struct {
	LoanID       uuid.UUID `json:"loan_id"`
	DueDate      time.Time `json:"due_date"`
	RenewalCount int       `json:"renewal_count"`
}

// ItemStatusChangedEvent is logged for the item status transition committed
// with a loan.
type ItemStatusChangedEvent struct {
	ItemID uuid.UUID         `json:"item_id"`
	Status domain.ItemStatus `json:"status"`
}
