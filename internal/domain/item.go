// internal/domain/item.go
package domain

import (
	"github.com/google/uuid"
)

// ItemStatus is the circulation status of a physical item.
type ItemStatus string

const (
	ItemStatusAvailable          ItemStatus = "Available"
	ItemStatusCheckedOut         ItemStatus = "Checked out"
	ItemStatusCheckedOutHeld     ItemStatus = "Checked out - Held"
	ItemStatusCheckedOutRecalled ItemStatus = "Checked out - Recalled"
	ItemStatusAwaitingPickup     ItemStatus = "Awaiting pickup"
	ItemStatusPaged              ItemStatus = "Paged"
	ItemStatusDeclaredLost       ItemStatus = "Declared lost"
	ItemStatusClaimedReturned    ItemStatus = "Claimed returned"
	ItemStatusWithdrawn          ItemStatus = "Withdrawn"
	ItemStatusMissing            ItemStatus = "Missing"
	ItemStatusInProcess          ItemStatus = "In process"
)

// Location is the shelving location of an item together with its ancestry.
type Location struct {
	ID            uuid.UUID
	LibraryID     uuid.UUID
	CampusID      uuid.UUID
	InstitutionID uuid.UUID
}

// Item is the catalog record a loan refers to. A zero-value Item stands for
// an item that could not be found.
type Item struct {
	ID                  uuid.UUID
	Barcode             string
	Title               string
	MaterialTypeID      uuid.UUID
	PermanentLoanTypeID uuid.UUID
	TemporaryLoanTypeID uuid.UUID
	Status              ItemStatus
	Location            Location
}

// IsNotFound reports whether the item record is absent.
func (i Item) IsNotFound() bool {
	return i.ID == uuid.Nil
}

// IsCheckedOut reports whether the item is on loan in any of its
// checked-out states.
func (i Item) IsCheckedOut() bool {
	switch i.Status {
	case ItemStatusCheckedOut, ItemStatusCheckedOutHeld, ItemStatusCheckedOutRecalled:
		return true
	}
	return false
}

// LoanTypeID returns the loan type controlling the item: the temporary loan
// type when one is set, otherwise the permanent one.
func (i Item) LoanTypeID() uuid.UUID {
	if i.TemporaryLoanTypeID != uuid.Nil {
		return i.TemporaryLoanTypeID
	}
	return i.PermanentLoanTypeID
}

// WithStatus returns a copy of the item carrying the new status.
func (i Item) WithStatus(status ItemStatus) Item {
	i.Status = status
	return i
}
