// internal/storage/items.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"libracirc/internal/domain"
)

// ItemStore reads item records and commits item status transitions.
type ItemStore struct {
	db *sql.DB
}

// NewItemStore creates an item store over the given database.
func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

// GetItemByBarcode retrieves an item together with its location ancestry.
func (s *ItemStore) GetItemByBarcode(ctx context.Context, barcode string) (domain.Item, error) {
	query := `
		SELECT i.id, i.barcode, i.title, i.material_type_id,
		       i.permanent_loan_type_id, i.temporary_loan_type_id, i.status,
		       l.id, l.library_id, l.campus_id, l.institution_id
		FROM items i
		JOIN locations l ON l.id = i.location_id
		WHERE i.barcode = $1
	`
	var item domain.Item
	var temporaryLoanType uuid.NullUUID
	err := s.db.QueryRowContext(ctx, query, barcode).Scan(
		&item.ID,
		&item.Barcode,
		&item.Title,
		&item.MaterialTypeID,
		&item.PermanentLoanTypeID,
		&temporaryLoanType,
		&item.Status,
		&item.Location.ID,
		&item.Location.LibraryID,
		&item.Location.CampusID,
		&item.Location.InstitutionID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Item{}, fmt.Errorf("item with barcode %s: %w", barcode, domain.ErrNotFound)
		}
		return domain.Item{}, fmt.Errorf("get item by barcode: %w", err)
	}
	item.TemporaryLoanTypeID = temporaryLoanType.UUID

	return item, nil
}

// GetRequestQueue retrieves the open requests for an item ordered by queue
// position.
func (s *ItemStore) GetRequestQueue(ctx context.Context, itemID uuid.UUID) (domain.RequestQueue, error) {
	query := `
		SELECT id, item_id, requester_id, request_type, status, position
		FROM requests
		WHERE item_id = $1 AND status LIKE 'Open%'
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return domain.RequestQueue{}, fmt.Errorf("query request queue: %w", err)
	}
	defer rows.Close()

	var queue domain.RequestQueue
	for rows.Next() {
		var request domain.Request
		err := rows.Scan(
			&request.ID,
			&request.ItemID,
			&request.RequesterID,
			&request.Type,
			&request.Status,
			&request.Position,
		)
		if err != nil {
			return domain.RequestQueue{}, fmt.Errorf("scan request: %w", err)
		}
		queue.Requests = append(queue.Requests, request)
	}
	if err := rows.Err(); err != nil {
		return domain.RequestQueue{}, fmt.Errorf("iterate requests: %w", err)
	}

	return queue, nil
}

// UpdateItemStatus commits the item status transition produced by a
// finalised loan.
func (s *ItemStore) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status domain.ItemStatus) error {
	query := `
		UPDATE items
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, query, status, itemID)
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	return nil
}
