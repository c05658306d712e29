// internal/policy/policy.go
package policy

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"libracirc/internal/domain"
	"libracirc/internal/validation"
)

// Profile is the due-date computation mode of a loan policy.
type Profile string

const (
	ProfileRolling Profile = "Rolling"
	ProfileFixed   Profile = "Fixed"
	ProfileUnknown Profile = "Unknown"
)

// RenewFrom selects the base date a rolling renewal extends from.
type RenewFrom string

const (
	RenewFromSystemDate     RenewFrom = "SYSTEM_DATE"
	RenewFromCurrentDueDate RenewFrom = "CURRENT_DUE_DATE"
)

// LoanPolicy is the resolved configuration governing one loan. It is an
// immutable value: attaching schedules after load produces a new policy
// rather than mutating the loaded one.
type LoanPolicy struct {
	ID       uuid.UUID
	Name     string
	Loanable bool
	Profile  Profile

	// Rolling checkout configuration.
	Period Period

	// Fixed checkout schedule id; for rolling policies an optional
	// limiting schedule.
	FixedDueDateScheduleID uuid.UUID

	// ItemLimit caps how many items of the controlling loan type a patron
	// may have out at once. Zero means no limit.
	ItemLimit int

	RenewFrom              RenewFrom
	UnlimitedRenewals      bool
	RenewalsAllowed        int
	DifferentRenewalPeriod bool
	RenewalPeriod          Period

	// Alternate schedule id applied to renewals when DifferentRenewalPeriod
	// is set.
	AlternateRenewalScheduleID uuid.UUID

	schedule                 FixedDueDateSchedule
	alternateRenewalSchedule FixedDueDateSchedule
}

// WithDueDateSchedule returns a copy of the policy carrying the checkout
// schedule.
func (p LoanPolicy) WithDueDateSchedule(s FixedDueDateSchedule) LoanPolicy {
	p.schedule = s
	return p
}

// WithAlternateRenewalSchedule returns a copy of the policy carrying the
// alternate renewal schedule.
func (p LoanPolicy) WithAlternateRenewalSchedule(s FixedDueDateSchedule) LoanPolicy {
	p.alternateRenewalSchedule = s
	return p
}

// IsResolved reports whether the policy has been loaded for the transaction.
func (p LoanPolicy) IsResolved() bool {
	return p.ID != uuid.Nil
}

// CalculateInitialDueDate computes the due date of an initial checkout.
// Renewal limits are never evaluated here.
func (p LoanPolicy) CalculateInitialDueDate(loan domain.Loan) (time.Time, error) {
	return p.determineStrategy(false, time.Time{})(loan)
}

// Renew computes the renewed loan. Failures from the raw due-date
// calculation, the no-change check and the renewal-limit check are
// aggregated into a single validation failure so the caller sees every
// reason the renewal was refused. Unexpected computational errors are
// propagated unchanged.
func (p LoanPolicy) Renew(loan domain.Loan, systemDate time.Time) (domain.Loan, error) {
	proposed, err := p.determineStrategy(true, systemDate)(loan)

	var errors []*validation.ValidationError
	if err != nil {
		failure, ok := err.(*validation.Failure)
		if !ok {
			return domain.Loan{}, err
		}
		errors = append(errors, failure.Errors...)
	} else if !proposed.After(loan.DueDate) {
		errors = append(errors, validation.NewValidationError(
			"renewal at this time would not change the due date",
			"loanPolicyId", p.ID.String()))
	}

	if !p.UnlimitedRenewals && loan.RenewalCount >= p.RenewalsAllowed {
		errors = append(errors, validation.NewValidationError(
			"loan has reached its maximum number of renewals",
			"loanPolicyId", p.ID.String()))
	}

	if len(errors) > 0 {
		return domain.Loan{}, validation.NewFailure(errors...)
	}

	return loan.Renew(proposed, p.ID), nil
}

// validationError builds a strategy failure pointing the operator at the
// policy to review.
func (p LoanPolicy) validationError(reason string) *validation.Failure {
	return validation.NewFailure(&validation.ValidationError{
		Message: fmt.Sprintf("%s, please review the loan policy %q", reason, p.Name),
		Parameters: []validation.Parameter{
			{Key: "loanPolicyId", Value: p.ID.String()},
			{Key: "loanPolicyName", Value: p.Name},
		},
	})
}
