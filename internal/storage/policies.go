// internal/storage/policies.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"libracirc/internal/domain"
	"libracirc/internal/policy"
)

// PolicyStore reads loan policies and fixed due date schedules.
type PolicyStore struct {
	db *sql.DB
}

// NewPolicyStore creates a policy store over the given database.
func NewPolicyStore(db *sql.DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// GetLoanPolicy retrieves one loan policy. Schedules referenced by the
// policy are not loaded here; the caller composes them onto the policy.
func (s *PolicyStore) GetLoanPolicy(ctx context.Context, id uuid.UUID) (policy.LoanPolicy, error) {
	query := `
		SELECT id, name, loanable, profile,
		       COALESCE(period_duration, 0), COALESCE(period_interval, ''),
		       fixed_due_date_schedule_id, COALESCE(item_limit, 0),
		       COALESCE(renew_from, ''), unlimited_renewals,
		       COALESCE(renewals_allowed, 0), different_renewal_period,
		       COALESCE(renewal_period_duration, 0), COALESCE(renewal_period_interval, ''),
		       alternate_renewal_schedule_id
		FROM loan_policies
		WHERE id = $1
	`
	var pol policy.LoanPolicy
	var schedule, alternateSchedule uuid.NullUUID
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&pol.ID,
		&pol.Name,
		&pol.Loanable,
		&pol.Profile,
		&pol.Period.Duration,
		&pol.Period.Interval,
		&schedule,
		&pol.ItemLimit,
		&pol.RenewFrom,
		&pol.UnlimitedRenewals,
		&pol.RenewalsAllowed,
		&pol.DifferentRenewalPeriod,
		&pol.RenewalPeriod.Duration,
		&pol.RenewalPeriod.Interval,
		&alternateSchedule,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return policy.LoanPolicy{}, fmt.Errorf("loan policy %s: %w", id, domain.ErrNotFound)
		}
		return policy.LoanPolicy{}, fmt.Errorf("get loan policy: %w", err)
	}
	pol.FixedDueDateScheduleID = schedule.UUID
	pol.AlternateRenewalScheduleID = alternateSchedule.UUID

	return pol, nil
}

// GetFixedDueDateSchedule retrieves a schedule with its date-range entries.
func (s *PolicyStore) GetFixedDueDateSchedule(ctx context.Context, id uuid.UUID) (policy.FixedDueDateSchedule, error) {
	var schedule policy.FixedDueDateSchedule
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name
		FROM fixed_due_date_schedules
		WHERE id = $1
	`, id).Scan(&schedule.ID, &schedule.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return policy.FixedDueDateSchedule{}, fmt.Errorf(
				"fixed due date schedule %s: %w", id, domain.ErrNotFound)
		}
		return policy.FixedDueDateSchedule{}, fmt.Errorf("get schedule: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT range_start, range_end, due_date
		FROM fixed_due_date_schedule_entries
		WHERE schedule_id = $1
		ORDER BY range_start ASC
	`, id)
	if err != nil {
		return policy.FixedDueDateSchedule{}, fmt.Errorf("query schedule entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry policy.ScheduleEntry
		if err := rows.Scan(&entry.From, &entry.To, &entry.DueDate); err != nil {
			return policy.FixedDueDateSchedule{}, fmt.Errorf("scan schedule entry: %w", err)
		}
		schedule.Entries = append(schedule.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return policy.FixedDueDateSchedule{}, fmt.Errorf("iterate schedule entries: %w", err)
	}

	return schedule, nil
}
