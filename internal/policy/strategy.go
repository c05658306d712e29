// internal/policy/strategy.go
package policy

import (
	"fmt"
	"time"

	"libracirc/internal/domain"
)

// dueDateStrategy computes a due date for a loan, or fails with either a
// validation failure (business rule) or a plain error (misconfiguration).
type dueDateStrategy func(loan domain.Loan) (time.Time, error)

// determineStrategy selects the due-date algorithm for the policy profile
// and operation. Renewal strategies close over the system date supplied by
// the caller so the calculation stays deterministic.
func (p LoanPolicy) determineStrategy(isRenewal bool, systemDate time.Time) dueDateStrategy {
	switch p.Profile {
	case ProfileRolling:
		if isRenewal {
			return p.rollingRenewal(systemDate)
		}
		return p.rollingCheckOut()
	case ProfileFixed:
		if isRenewal {
			return p.fixedScheduleRenewal(systemDate)
		}
		return p.fixedScheduleCheckOut()
	default:
		return p.unknownProfile()
	}
}

// rollingCheckOut offsets the loan date by the checkout period, truncated by
// the limiting schedule when the policy designates one.
func (p LoanPolicy) rollingCheckOut() dueDateStrategy {
	return func(loan domain.Loan) (time.Time, error) {
		dueDate, err := p.Period.AddTo(loan.LoanDate)
		if err != nil {
			return time.Time{}, p.periodError(err, p.Period)
		}
		return p.schedule.Limit(loan.LoanDate, dueDate), nil
	}
}

// rollingRenewal extends from the current due date or the system date,
// using the renewal period when the policy configures a different one.
func (p LoanPolicy) rollingRenewal(systemDate time.Time) dueDateStrategy {
	return func(loan domain.Loan) (time.Time, error) {
		base := systemDate
		if p.RenewFrom == RenewFromCurrentDueDate {
			base = loan.DueDate
		}

		period := p.Period
		if p.DifferentRenewalPeriod {
			period = p.RenewalPeriod
		}

		dueDate, err := period.AddTo(base)
		if err != nil {
			return time.Time{}, p.periodError(err, period)
		}
		return p.renewalLimitSchedule().Limit(systemDate, dueDate), nil
	}
}

// fixedScheduleCheckOut looks the loan date up in the checkout schedule.
func (p LoanPolicy) fixedScheduleCheckOut() dueDateStrategy {
	return func(loan domain.Loan) (time.Time, error) {
		dueDate, ok := p.schedule.DueDateFor(loan.LoanDate)
		if !ok {
			return time.Time{}, p.validationError(
				"loan date falls outside of the date ranges in the loan policy")
		}
		return dueDate, nil
	}
}

// fixedScheduleRenewal looks the system date up in the renewal schedule,
// selecting the alternate schedule when a different period is configured.
func (p LoanPolicy) fixedScheduleRenewal(systemDate time.Time) dueDateStrategy {
	return func(domain.Loan) (time.Time, error) {
		dueDate, ok := p.renewalLimitSchedule().DueDateFor(systemDate)
		if !ok {
			return time.Time{}, p.validationError(
				"renewal date falls outside of the date ranges in the loan policy")
		}
		return dueDate, nil
	}
}

// unknownProfile fails fast: an unrecognised profile is a configuration
// fault, not a patron-actionable validation error.
func (p LoanPolicy) unknownProfile() dueDateStrategy {
	return func(domain.Loan) (time.Time, error) {
		return time.Time{}, fmt.Errorf(
			"loan policy %s (%s) has unrecognised profile %q", p.ID, p.Name, p.Profile)
	}
}

// renewalLimitSchedule is the schedule limiting renewals: the alternate one
// when the policy renews with a different period, otherwise the checkout
// schedule.
func (p LoanPolicy) renewalLimitSchedule() FixedDueDateSchedule {
	if p.DifferentRenewalPeriod {
		return p.alternateRenewalSchedule
	}
	return p.schedule
}

// periodError maps period arithmetic faults onto operator-facing validation
// failures naming the policy.
func (p LoanPolicy) periodError(err error, period Period) error {
	switch err {
	case ErrUnrecognisedInterval:
		return p.validationError(fmt.Sprintf(
			"the interval %q in the loan policy is not recognised", period.Interval))
	case ErrInvalidDuration:
		return p.validationError(fmt.Sprintf(
			"the duration %d in the loan policy is invalid", period.Duration))
	default:
		return err
	}
}
