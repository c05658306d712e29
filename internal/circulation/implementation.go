// internal/circulation/implementation.go
package circulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"libracirc/internal/domain"
	"libracirc/internal/eventlog"
	"libracirc/internal/policy"
	"libracirc/internal/rules"
	"libracirc/internal/validation"
)

// ErrRateLimited is returned when the service sheds load.
var ErrRateLimited = errors.New("rate limit exceeded")

// service implements the Service interface.
type service struct {
	items       ItemStore
	users       UserStore
	loans       LoanStore
	policies    PolicyStore
	ruleSource  RuleSource
	blocks      PatronBlockSource
	permissions validation.PermissionSource
	events      EventLog
	limiter     *rate.Limiter
	now         func() time.Time
}

// NewService creates a new circulation service instance.
func NewService(items ItemStore, users UserStore, loans LoanStore,
	policies PolicyStore, ruleSource RuleSource, blocks PatronBlockSource,
	permissions validation.PermissionSource, events EventLog) Service {

	return &service{
		items:       items,
		users:       users,
		loans:       loans,
		policies:    policies,
		ruleSource:  ruleSource,
		blocks:      blocks,
		permissions: permissions,
		events:      events,
		limiter:     rate.NewLimiter(rate.Limit(50), 100),
		now:         time.Now,
	}
}

// CheckOut runs the checkout pipeline: fetch related records, run every
// validator against the in-progress transaction with deferred failure
// handling, resolve the governing loan policy through the circulation
// rules, compute the due date and finalise the loan.
func (s *service) CheckOut(ctx context.Context, req CheckOutRequest) (*domain.Loan, error) {
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	now := s.now().UTC()
	loanDate := req.LoanDate
	if loanDate.IsZero() {
		loanDate = now
	}

	handler := validation.NewDeferFailureHandler()
	validators := newCheckOutValidators(req, handler, s.users, s.loans, s.blocks, s.permissions, now)

	records := &LoanRecords{
		Loan: domain.Loan{
			ID:                     uuid.New(),
			LoanDate:               loanDate,
			Status:                 domain.LoanStatusOpen,
			Action:                 domain.LoanActionCheckedOut,
			CheckoutServicePointID: req.ServicePointID,
		},
	}

	if err := s.fetchRelatedRecords(ctx, req, records, handler); err != nil {
		return nil, err
	}

	checks := []func() error{
		func() error { return validators.refuseWhenServicePointIsNotPresent(records) },
		func() error { return validators.refuseWhenItemNotFound(records) },
		func() error { return validators.refuseWhenUserNotFound(records) },
		func() error { return validators.refuseWhenItemIsAlreadyCheckedOut(records) },
		func() error { return validators.refuseWhenItemIsNotAllowedForCheckOut(records) },
		func() error { return validators.refuseWhenUserIsInactive(records) },
		func() error { return validators.refuseWhenProxyUserIsInactive(records) },
		func() error { return validators.refuseWhenInvalidProxyRelationship(ctx, records) },
		func() error { return validators.refuseWhenRequestedByAnotherPatron(records) },
		func() error { return validators.refuseWhenItemHasOpenLoan(ctx, records) },
		func() error { return validators.refuseWhenCheckOutIsBlockedForPatron(ctx, records) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return nil, err
		}
	}

	// Policy resolution needs item and user attributes, so it is skipped
	// when either fetch already failed; the recorded failures refuse the
	// transaction below.
	if !handler.HasAny(validation.KindFailedToFetchItem, validation.KindFailedToFetchUser) {
		pol, err := s.resolveLoanPolicy(ctx, records)
		if err != nil {
			return nil, err
		}
		records.Policy = pol
		records.Loan.PolicyID = pol.ID

		if err := validators.refuseWhenItemIsNotLoanable(ctx, records); err != nil {
			return nil, err
		}
		if err := validators.refuseWhenItemLimitIsReached(ctx, records); err != nil {
			return nil, err
		}
	}

	if handler.Failed() {
		return nil, handler.Failure()
	}

	dueDate, err := s.checkOutDueDate(req, records, handler)
	if err != nil {
		return nil, err
	}
	records.Loan.DueDate = dueDate

	if err := s.finalizeCheckOut(ctx, records); err != nil {
		return nil, err
	}

	loan := records.Loan
	return &loan, nil
}

// fetchRelatedRecords loads the item, its request queue, the user and the
// proxy user. A missing record leaves the zero value in place for the
// not-found validators; a failed lookup is recorded as a fetch failure so
// dependent validators are suppressed instead of cascading.
func (s *service) fetchRelatedRecords(ctx context.Context, req CheckOutRequest,
	records *LoanRecords, handler *validation.Handler) error {

	item, err := s.items.GetItemByBarcode(ctx, req.ItemBarcode)
	switch {
	case err == nil:
		records.Item = item
		records.Loan.ItemID = item.ID

		queue, err := s.items.GetRequestQueue(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("fetch request queue for item %s: %w", item.ID, err)
		}
		records.RequestQueue = queue
	case !errors.Is(err, domain.ErrNotFound):
		handler.Handle(validation.SingleFailure(
			fmt.Sprintf("Failed to fetch item with barcode %s", req.ItemBarcode),
			"itemBarcode", req.ItemBarcode), validation.KindFailedToFetchItem)
	}

	user, err := s.users.GetUserByBarcode(ctx, req.UserBarcode)
	switch {
	case err == nil:
		records.User = user
		records.Loan.UserID = user.ID
	case !errors.Is(err, domain.ErrNotFound):
		handler.Handle(validation.SingleFailure(
			fmt.Sprintf("Failed to fetch user with barcode %s", req.UserBarcode),
			"userBarcode", req.UserBarcode), validation.KindFailedToFetchUser)
	}

	if req.ProxyUserBarcode != "" {
		proxy, err := s.users.GetUserByBarcode(ctx, req.ProxyUserBarcode)
		switch {
		case err == nil:
			records.ProxyUser = proxy
			records.Loan.ProxyUserID = proxy.ID
		case !errors.Is(err, domain.ErrNotFound):
			handler.Handle(validation.SingleFailure(
				fmt.Sprintf("Failed to fetch proxy user with barcode %s", req.ProxyUserBarcode),
				"proxyUserBarcode", req.ProxyUserBarcode), validation.KindFailedToFetchProxyUser)
		}
	}

	return nil
}

// resolveLoanPolicy applies the circulation rules to the transaction context
// and loads the matched policy, attaching its fixed due date schedules. A
// missing rule match or policy is a configuration fault.
func (s *service) resolveLoanPolicy(ctx context.Context, records *LoanRecords) (policy.LoanPolicy, error) {
	table, err := s.ruleSource.Rules(ctx)
	if err != nil {
		return policy.LoanPolicy{}, fmt.Errorf("fetch circulation rules: %w", err)
	}

	match, err := rules.NewMatcher(table).Apply(rules.Context{
		ItemTypeID:    records.Item.MaterialTypeID,
		LoanTypeID:    records.Item.LoanTypeID(),
		PatronGroupID: records.User.PatronGroupID,
		LocationID:    records.Item.Location.ID,
		LibraryID:     records.Item.Location.LibraryID,
		CampusID:      records.Item.Location.CampusID,
		InstitutionID: records.Item.Location.InstitutionID,
	}, rules.LoanPolicyCategory)
	if err != nil {
		return policy.LoanPolicy{}, err
	}

	return s.loadLoanPolicy(ctx, match.PolicyID)
}

// loadLoanPolicy fetches the policy and composes its schedules onto it. The
// composition builds new policy values; the loaded record is never mutated.
func (s *service) loadLoanPolicy(ctx context.Context, id uuid.UUID) (policy.LoanPolicy, error) {
	pol, err := s.policies.GetLoanPolicy(ctx, id)
	if err != nil {
		return policy.LoanPolicy{}, fmt.Errorf("fetch loan policy %s: %w", id, err)
	}

	if pol.FixedDueDateScheduleID != uuid.Nil {
		schedule, err := s.policies.GetFixedDueDateSchedule(ctx, pol.FixedDueDateScheduleID)
		if err != nil {
			return policy.LoanPolicy{}, fmt.Errorf("fetch fixed due date schedule %s: %w",
				pol.FixedDueDateScheduleID, err)
		}
		pol = pol.WithDueDateSchedule(schedule)
	}

	if pol.AlternateRenewalScheduleID != uuid.Nil {
		schedule, err := s.policies.GetFixedDueDateSchedule(ctx, pol.AlternateRenewalScheduleID)
		if err != nil {
			return policy.LoanPolicy{}, fmt.Errorf("fetch alternate renewal schedule %s: %w",
				pol.AlternateRenewalScheduleID, err)
		}
		pol = pol.WithAlternateRenewalSchedule(schedule)
	}

	return pol, nil
}

// checkOutDueDate computes the loan due date. When the item-not-loanable
// block was overridden the policy cannot produce one, so the due date
// supplied with the override is used instead.
func (s *service) checkOutDueDate(req CheckOutRequest, records *LoanRecords,
	handler *validation.Handler) (time.Time, error) {

	if overrideRecorded(handler, validation.ItemNotLoanableBlock) {
		if req.DueDate.IsZero() {
			return time.Time{}, validation.SingleFailure(
				"override of item not loanable block requires an explicit due date",
				"dueDate", "")
		}
		return req.DueDate, nil
	}

	return records.Policy.CalculateInitialDueDate(records.Loan)
}

func overrideRecorded(handler *validation.Handler, block validation.BlockType) bool {
	for _, o := range handler.Overrides() {
		if o.Block == block {
			return true
		}
	}
	return false
}

// finalizeCheckOut commits the loan and performs the single state mutation
// the core owns: the item status transition, which follows the top request
// of the item's queue.
func (s *service) finalizeCheckOut(ctx context.Context, records *LoanRecords) error {
	status := domain.ItemStatusCheckedOut
	if top, ok := records.RequestQueue.TopRequest(); ok {
		switch top.Type {
		case domain.RequestTypeHold:
			status = domain.ItemStatusCheckedOutHeld
		case domain.RequestTypeRecall:
			status = domain.ItemStatusCheckedOutRecalled
		}
	}

	if err := s.loans.CreateLoan(ctx, records.Loan); err != nil {
		return fmt.Errorf("create loan: %w", err)
	}

	if err := s.items.UpdateItemStatus(ctx, records.Item.ID, status); err != nil {
		return fmt.Errorf("update item status: %w", err)
	}

	checkedOut, err := json.Marshal(LoanCheckedOutEvent{
		LoanID:   records.Loan.ID,
		ItemID:   records.Item.ID,
		UserID:   records.User.ID,
		PolicyID: records.Policy.ID,
		DueDate:  records.Loan.DueDate,
	})
	if err != nil {
		return fmt.Errorf("marshal checkout event: %w", err)
	}

	statusChanged, err := json.Marshal(ItemStatusChangedEvent{
		ItemID: records.Item.ID,
		Status: status,
	})
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	err = s.events.Append(ctx, records.Loan.ID, 0, []eventlog.Event{
		{Type: eventlog.TypeLoanCheckedOut, Data: checkedOut},
		{Type: eventlog.TypeItemStatusChanged, Data: statusChanged},
	})
	if err != nil {
		return fmt.Errorf("append checkout events: %w", err)
	}

	return nil
}

// Renew runs the renewal pipeline: locate the open loan, re-resolve the
// governing policy, and let the policy compute the renewed loan with its
// renewal-limit and no-change checks aggregated.
func (s *service) Renew(ctx context.Context, req RenewRequest) (*domain.Loan, error) {
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	now := s.now().UTC()

	item, err := s.items.GetItemByBarcode(ctx, req.ItemBarcode)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, validation.SingleFailure(
			fmt.Sprintf("No item with barcode %s could be found", req.ItemBarcode),
			"itemBarcode", req.ItemBarcode)
	} else if err != nil {
		return nil, fmt.Errorf("fetch item with barcode %s: %w", req.ItemBarcode, err)
	}

	user, err := s.users.GetUserByBarcode(ctx, req.UserBarcode)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, validation.SingleFailure(
			fmt.Sprintf("Could not find user with matching barcode %s", req.UserBarcode),
			"userBarcode", req.UserBarcode)
	} else if err != nil {
		return nil, fmt.Errorf("fetch user with barcode %s: %w", req.UserBarcode, err)
	}

	loan, err := s.loans.GetOpenLoan(ctx, item.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, validation.SingleFailure(
			"Cannot renew item that is not checked out",
			"itemBarcode", req.ItemBarcode)
	} else if err != nil {
		return nil, fmt.Errorf("fetch open loan for item %s: %w", item.ID, err)
	}

	handler := validation.NewDeferFailureHandler()

	if loan.UserID != user.ID {
		handler.Handle(validation.SingleFailure(
			"Cannot renew item checked out to different user",
			"userBarcode", req.UserBarcode), validation.KindRenewalValidationError)
	}
	if user.IsInactive(now) {
		handler.Handle(validation.SingleFailure(
			"Cannot renew loan for inactive user",
			"userBarcode", req.UserBarcode), validation.KindUserInactive)
	}

	blocks, err := s.blocks.ActiveBlocks(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch patron blocks for user %s: %w", user.ID, err)
	}
	for _, block := range blocks {
		if block.BlocksRenewal {
			handler.Handle(validation.SingleFailure(
				block.Message, "userBarcode", req.UserBarcode),
				validation.KindUserBlockedAutomatically)
		}
	}

	records := &LoanRecords{Loan: loan, Item: item, User: user}
	pol, err := s.resolveLoanPolicy(ctx, records)
	if err != nil {
		return nil, err
	}

	renewed, err := pol.Renew(loan, now)
	if err != nil {
		var failure *validation.Failure
		if !errors.As(err, &failure) {
			return nil, err
		}
		handler.Handle(failure, validation.KindRenewalValidationError)
	}

	if handler.Failed() {
		return nil, handler.Failure()
	}

	if err := s.loans.UpdateLoan(ctx, renewed); err != nil {
		return nil, fmt.Errorf("update loan %s: %w", renewed.ID, err)
	}

	version, err := s.events.CurrentVersion(ctx, renewed.ID)
	if err != nil {
		return nil, fmt.Errorf("event log version for loan %s: %w", renewed.ID, err)
	}

	renewedEvent, err := json.Marshal(LoanRenewedEvent{
		LoanID:       renewed.ID,
		DueDate:      renewed.DueDate,
		RenewalCount: renewed.RenewalCount,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal renewal event: %w", err)
	}

	err = s.events.Append(ctx, renewed.ID, version, []eventlog.Event{
		{Type: eventlog.TypeLoanRenewed, Data: renewedEvent},
	})
	if err != nil {
		return nil, fmt.Errorf("append renewal event: %w", err)
	}

	return &renewed, nil
}
