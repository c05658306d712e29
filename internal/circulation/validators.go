// internal/circulation/validators.go
package circulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"libracirc/internal/domain"
	"libracirc/internal/validation"
)

// statusesNotAllowedForCheckOut lists item states that block a checkout
// outright.
var statusesNotAllowedForCheckOut = map[domain.ItemStatus]bool{
	domain.ItemStatusDeclaredLost:    true,
	domain.ItemStatusClaimedReturned: true,
	domain.ItemStatusWithdrawn:       true,
	domain.ItemStatusMissing:         true,
	domain.ItemStatusInProcess:       true,
}

// checkOutValidators runs the independent business-rule checks for one
// checkout transaction. Each check reports at most one failure into the
// shared error handler; checks whose prerequisite fetch already failed are
// skipped rather than run against missing records.
type checkOutValidators struct {
	request     CheckOutRequest
	handler     *validation.Handler
	users       UserStore
	loans       LoanStore
	blocks      PatronBlockSource
	permissions validation.PermissionSource
	now         time.Time
}

func newCheckOutValidators(req CheckOutRequest, handler *validation.Handler,
	users UserStore, loans LoanStore, blocks PatronBlockSource,
	permissions validation.PermissionSource, now time.Time) *checkOutValidators {

	return &checkOutValidators{
		request:     req,
		handler:     handler,
		users:       users,
		loans:       loans,
		blocks:      blocks,
		permissions: permissions,
		now:         now,
	}
}

func (v *checkOutValidators) refuseWhenServicePointIsNotPresent(records *LoanRecords) error {
	if records.Loan.CheckoutServicePointID != uuid.Nil {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		"Check out must be performed at a service point",
		"checkoutServicePointId", ""), validation.KindServicePointNotPresent)
}

func (v *checkOutValidators) refuseWhenItemNotFound(records *LoanRecords) error {
	if v.handler.HasAny(validation.KindFailedToFetchItem) {
		return nil
	}
	if !records.Item.IsNotFound() {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		fmt.Sprintf("No item with barcode %s could be found", v.request.ItemBarcode),
		"itemBarcode", v.request.ItemBarcode), validation.KindFailedToFetchItem)
}

func (v *checkOutValidators) refuseWhenUserNotFound(records *LoanRecords) error {
	if v.handler.HasAny(validation.KindFailedToFetchUser) {
		return nil
	}
	if !records.User.IsNotFound() {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		fmt.Sprintf("Could not find user with matching barcode %s", v.request.UserBarcode),
		"userBarcode", v.request.UserBarcode), validation.KindFailedToFetchUser)
}

func (v *checkOutValidators) refuseWhenItemIsAlreadyCheckedOut(records *LoanRecords) error {
	if v.handler.HasAny(validation.KindFailedToFetchItem) {
		return nil
	}
	if !records.Item.IsCheckedOut() {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		"Item is already checked out",
		"itemBarcode", v.request.ItemBarcode), validation.KindItemAlreadyCheckedOut)
}

func (v *checkOutValidators) refuseWhenItemIsNotAllowedForCheckOut(records *LoanRecords) error {
	if v.handler.HasAny(validation.KindFailedToFetchItem) {
		return nil
	}
	if !statusesNotAllowedForCheckOut[records.Item.Status] {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		fmt.Sprintf("%s (Barcode: %s) has the item status %s and cannot be checked out",
			records.Item.Title, records.Item.Barcode, records.Item.Status),
		"itemBarcode", v.request.ItemBarcode), validation.KindItemNotAllowedForCheckOut)
}

func (v *checkOutValidators) refuseWhenUserIsInactive(records *LoanRecords) error {
	if v.handler.HasAny(validation.KindFailedToFetchUser) {
		return nil
	}
	if !records.User.IsInactive(v.now) {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		"Cannot check out to inactive user",
		"userBarcode", v.request.UserBarcode), validation.KindUserInactive)
}

func (v *checkOutValidators) refuseWhenProxyUserIsInactive(records *LoanRecords) error {
	if v.request.ProxyUserBarcode == "" {
		return nil
	}
	if v.handler.HasAny(validation.KindFailedToFetchProxyUser) {
		return nil
	}
	if !records.ProxyUser.IsInactive(v.now) {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		"Cannot check out via inactive proxying user",
		"proxyUserBarcode", v.request.ProxyUserBarcode), validation.KindProxyUserInactive)
}

func (v *checkOutValidators) refuseWhenInvalidProxyRelationship(ctx context.Context, records *LoanRecords) error {
	if v.request.ProxyUserBarcode == "" {
		return nil
	}
	if v.handler.HasAny(validation.KindFailedToFetchUser, validation.KindFailedToFetchProxyUser) {
		return nil
	}

	rel, err := v.users.GetProxyRelationship(ctx, records.User.ID, records.ProxyUser.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("fetch proxy relationship: %w", err)
	}
	if err == nil && rel.IsValid(v.now) {
		return nil
	}

	return v.handler.Handle(validation.SingleFailure(
		"Cannot check out item via proxy when relationship is invalid",
		"proxyUserBarcode", v.request.ProxyUserBarcode), validation.KindInvalidProxyRelationship)
}

func (v *checkOutValidators) refuseWhenRequestedByAnotherPatron(records *LoanRecords) error {
	if v.handler.HasAny(validation.KindFailedToFetchItem, validation.KindFailedToFetchUser) {
		return nil
	}

	top, ok := records.RequestQueue.TopRequest()
	if !ok || top.RequesterID == records.User.ID {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		"The item is requested by another patron",
		"userBarcode", v.request.UserBarcode), validation.KindItemRequestedByAnotherPatron)
}

func (v *checkOutValidators) refuseWhenItemHasOpenLoan(ctx context.Context, records *LoanRecords) error {
	if v.handler.HasAny(validation.KindFailedToFetchItem) {
		return nil
	}

	open, err := v.loans.HasOpenLoan(ctx, records.Item.ID)
	if err != nil {
		return fmt.Errorf("check open loans for item %s: %w", records.Item.ID, err)
	}
	if !open {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		"Cannot check out item that already has an open loan",
		"itemBarcode", v.request.ItemBarcode), validation.KindItemHasOpenLoans)
}

func (v *checkOutValidators) refuseWhenCheckOutIsBlockedForPatron(ctx context.Context, records *LoanRecords) error {
	if v.handler.HasAny(validation.KindFailedToFetchUser) {
		return nil
	}

	if v.request.Overrides.PatronBlock.Requested {
		return v.overriding(validation.PatronBlock).Validate(ctx, v.handler)
	}

	blocks, err := v.blocks.ActiveBlocks(ctx, records.User.ID)
	if err != nil {
		return fmt.Errorf("fetch patron blocks for user %s: %w", records.User.ID, err)
	}

	var errs []*validation.ValidationError
	for _, block := range blocks {
		if block.BlocksCheckOut {
			errs = append(errs, validation.NewValidationError(
				block.Message, "userBarcode", v.request.UserBarcode))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return v.handler.Handle(validation.NewFailure(errs...), validation.KindUserBlockedAutomatically)
}

func (v *checkOutValidators) refuseWhenItemIsNotLoanable(ctx context.Context, records *LoanRecords) error {
	if !records.Policy.IsResolved() {
		return nil
	}

	if v.request.Overrides.ItemNotLoanableBlock.Requested {
		return v.overriding(validation.ItemNotLoanableBlock).Validate(ctx, v.handler)
	}

	if records.Policy.Loanable {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		"Item is not loanable",
		"loanPolicyName", records.Policy.Name), validation.KindItemNotLoanable)
}

func (v *checkOutValidators) refuseWhenItemLimitIsReached(ctx context.Context, records *LoanRecords) error {
	if !records.Policy.IsResolved() {
		return nil
	}

	if v.request.Overrides.ItemLimitBlock.Requested {
		return v.overriding(validation.ItemLimitBlock).Validate(ctx, v.handler)
	}

	limit := records.Policy.ItemLimit
	if limit <= 0 {
		return nil
	}

	count, err := v.loans.CountActiveLoans(ctx, records.User.ID, records.Item.LoanTypeID())
	if err != nil {
		return fmt.Errorf("count active loans for user %s: %w", records.User.ID, err)
	}
	if count < limit {
		return nil
	}
	return v.handler.Handle(validation.SingleFailure(
		fmt.Sprintf("Patron has reached maximum limit of %d items for loan type", limit),
		"itemLimit", fmt.Sprintf("%d", limit)), validation.KindItemLimitReached)
}

func (v *checkOutValidators) overriding(block validation.BlockType) validation.OverridingValidator {
	return validation.OverridingValidator{
		Block:       block,
		Overrides:   v.request.Overrides,
		StaffID:     v.request.StaffID,
		Permissions: v.permissions,
	}
}
