// internal/storage/blocks.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"libracirc/internal/domain"
)

// PatronBlockStore reads automated patron blocks.
type PatronBlockStore struct {
	db *sql.DB
}

// NewPatronBlockStore creates a patron block store over the given database.
func NewPatronBlockStore(db *sql.DB) *PatronBlockStore {
	return &PatronBlockStore{db: db}
}

// ActiveBlocks retrieves the blocks currently in force for a patron. An
// empty slice means the patron is unblocked.
func (s *PatronBlockStore) ActiveBlocks(ctx context.Context, userID uuid.UUID) ([]domain.PatronBlock, error) {
	query := `
		SELECT kind, message, blocks_check_out, blocks_renewal
		FROM patron_blocks
		WHERE user_id = $1
		  AND active
		  AND (expiration_date IS NULL OR expiration_date > NOW())
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query patron blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.PatronBlock
	for rows.Next() {
		var block domain.PatronBlock
		err := rows.Scan(
			&block.Kind,
			&block.Message,
			&block.BlocksCheckOut,
			&block.BlocksRenewal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan patron block: %w", err)
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patron blocks: %w", err)
	}

	return blocks, nil
}
