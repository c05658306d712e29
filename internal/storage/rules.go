// internal/storage/rules.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"libracirc/internal/rules"
)

// RuleStore reads the circulation rule table. Rules are stored one clause
// per row, ordered by line number.
type RuleStore struct {
	db *sql.DB
}

// NewRuleStore creates a rule store over the given database.
func NewRuleStore(db *sql.DB) *RuleStore {
	return &RuleStore{db: db}
}

// Rules retrieves the full rule table in declaration order.
func (s *RuleStore) Rules(ctx context.Context) ([]rules.Rule, error) {
	query := `
		SELECT line, item_type_any, item_type_ids,
		       loan_type_any, loan_type_ids,
		       patron_group_any, patron_group_ids,
		       location_any, COALESCE(location_level, ''), location_ids,
		       loan_policy_id, request_policy_id, notice_policy_id,
		       overdue_fine_policy_id, lost_item_policy_id
		FROM circulation_rules
		ORDER BY line ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query circulation rules: %w", err)
	}
	defer rows.Close()

	var table []rules.Rule
	for rows.Next() {
		var rule rules.Rule
		var itemTypeIDs, loanTypeIDs, patronGroupIDs, locationIDs []string
		var locationLevel string
		var loanPolicy, requestPolicy, noticePolicy, overdueFinePolicy, lostItemPolicy uuid.NullUUID
		err := rows.Scan(
			&rule.Line,
			&rule.ItemType.Any, pq.Array(&itemTypeIDs),
			&rule.LoanType.Any, pq.Array(&loanTypeIDs),
			&rule.PatronGroup.Any, pq.Array(&patronGroupIDs),
			&rule.Location.Any, &locationLevel, pq.Array(&locationIDs),
			&loanPolicy,
			&requestPolicy,
			&noticePolicy,
			&overdueFinePolicy,
			&lostItemPolicy,
		)
		if err != nil {
			return nil, fmt.Errorf("scan circulation rule: %w", err)
		}

		if rule.ItemType.IDs, err = parseIDs(itemTypeIDs); err != nil {
			return nil, fmt.Errorf("rule line %d item types: %w", rule.Line, err)
		}
		if rule.LoanType.IDs, err = parseIDs(loanTypeIDs); err != nil {
			return nil, fmt.Errorf("rule line %d loan types: %w", rule.Line, err)
		}
		if rule.PatronGroup.IDs, err = parseIDs(patronGroupIDs); err != nil {
			return nil, fmt.Errorf("rule line %d patron groups: %w", rule.Line, err)
		}
		if rule.Location.IDs, err = parseIDs(locationIDs); err != nil {
			return nil, fmt.Errorf("rule line %d locations: %w", rule.Line, err)
		}
		rule.Location.Level = rules.LocationLevel(locationLevel)

		rule.Policies = rules.PolicySet{
			LoanPolicyID:        loanPolicy.UUID,
			RequestPolicyID:     requestPolicy.UUID,
			NoticePolicyID:      noticePolicy.UUID,
			OverdueFinePolicyID: overdueFinePolicy.UUID,
			LostItemPolicyID:    lostItemPolicy.UUID,
		}

		table = append(table, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate circulation rules: %w", err)
	}

	return table, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", value, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
