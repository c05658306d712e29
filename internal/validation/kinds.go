// internal/validation/kinds.go
package validation

// Kind is the taxonomy tag a recorded failure is keyed by. Dependent
// validators query the handler for kinds recorded earlier in the pipeline.
type Kind string

const (
	KindFailedToFetchItem            Kind = "FAILED_TO_FETCH_ITEM"
	KindFailedToFetchUser            Kind = "FAILED_TO_FETCH_USER"
	KindFailedToFetchProxyUser       Kind = "FAILED_TO_FETCH_PROXY_USER"
	KindInvalidProxyRelationship     Kind = "INVALID_PROXY_RELATIONSHIP"
	KindItemAlreadyCheckedOut        Kind = "ITEM_ALREADY_CHECKED_OUT"
	KindItemHasOpenLoans             Kind = "ITEM_HAS_OPEN_LOANS"
	KindItemNotAllowedForCheckOut    Kind = "ITEM_IS_NOT_ALLOWED_FOR_CHECK_OUT"
	KindItemNotLoanable              Kind = "ITEM_IS_NOT_LOANABLE"
	KindItemLimitReached             Kind = "ITEM_LIMIT_IS_REACHED"
	KindItemRequestedByAnotherPatron Kind = "ITEM_REQUESTED_BY_ANOTHER_PATRON"
	KindProxyUserInactive            Kind = "PROXY_USER_IS_INACTIVE"
	KindServicePointNotPresent       Kind = "SERVICE_POINT_IS_NOT_PRESENT"
	KindUserBlockedAutomatically     Kind = "USER_IS_BLOCKED_AUTOMATICALLY"
	KindUserInactive                 Kind = "USER_IS_INACTIVE"
	KindRenewalValidationError       Kind = "RENEWAL_VALIDATION_ERROR"
)

// BlockType is a failure category that sufficiently permissioned staff may
// bypass with a justification.
type BlockType string

const (
	PatronBlock          BlockType = "patronBlock"
	ItemLimitBlock       BlockType = "itemLimitBlock"
	ItemNotLoanableBlock BlockType = "itemNotLoanableBlock"
)

// Permission returns the permission a caller must hold to override the block.
func (b BlockType) Permission() string {
	switch b {
	case PatronBlock:
		return "circulation.override-patron-block"
	case ItemLimitBlock:
		return "circulation.override-item-limit-block"
	case ItemNotLoanableBlock:
		return "circulation.override-item-not-loanable-block"
	}
	return ""
}

// Kind returns the error kind an overridden validator reports under. The
// override path never introduces a new taxonomy entry.
func (b BlockType) Kind() Kind {
	switch b {
	case PatronBlock:
		return KindUserBlockedAutomatically
	case ItemLimitBlock:
		return KindItemLimitReached
	case ItemNotLoanableBlock:
		return KindItemNotLoanable
	}
	return ""
}
