// internal/circulation/implementation_test.go
package circulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"libracirc/internal/domain"
	"libracirc/internal/eventlog"
	"libracirc/internal/policy"
	"libracirc/internal/rules"
	"libracirc/internal/validation"
)

type fakeItemStore struct {
	items    map[string]domain.Item
	queues   map[uuid.UUID]domain.RequestQueue
	fetchErr error

	statusUpdates map[uuid.UUID]domain.ItemStatus
}

func (f *fakeItemStore) GetItemByBarcode(_ context.Context, barcode string) (domain.Item, error) {
	if f.fetchErr != nil {
		return domain.Item{}, f.fetchErr
	}
	item, ok := f.items[barcode]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	return item, nil
}

func (f *fakeItemStore) GetRequestQueue(_ context.Context, itemID uuid.UUID) (domain.RequestQueue, error) {
	return f.queues[itemID], nil
}

func (f *fakeItemStore) UpdateItemStatus(_ context.Context, itemID uuid.UUID, status domain.ItemStatus) error {
	if f.statusUpdates == nil {
		f.statusUpdates = make(map[uuid.UUID]domain.ItemStatus)
	}
	f.statusUpdates[itemID] = status
	return nil
}

type fakeUserStore struct {
	users         map[string]domain.User
	relationships map[uuid.UUID]domain.ProxyRelationship
	fetchErr      error
}

func (f *fakeUserStore) GetUserByBarcode(_ context.Context, barcode string) (domain.User, error) {
	if f.fetchErr != nil {
		return domain.User{}, f.fetchErr
	}
	user, ok := f.users[barcode]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetProxyRelationship(_ context.Context, _, proxyUserID uuid.UUID) (domain.ProxyRelationship, error) {
	rel, ok := f.relationships[proxyUserID]
	if !ok {
		return domain.ProxyRelationship{}, domain.ErrNotFound
	}
	return rel, nil
}

type fakeLoanStore struct {
	openLoans   map[uuid.UUID]domain.Loan
	activeCount int

	created []domain.Loan
	updated []domain.Loan
}

func (f *fakeLoanStore) HasOpenLoan(_ context.Context, itemID uuid.UUID) (bool, error) {
	_, open := f.openLoans[itemID]
	return open, nil
}

func (f *fakeLoanStore) CountActiveLoans(context.Context, uuid.UUID, uuid.UUID) (int, error) {
	return f.activeCount, nil
}

func (f *fakeLoanStore) GetOpenLoan(_ context.Context, itemID uuid.UUID) (domain.Loan, error) {
	loan, ok := f.openLoans[itemID]
	if !ok {
		return domain.Loan{}, domain.ErrNotFound
	}
	return loan, nil
}

func (f *fakeLoanStore) CreateLoan(_ context.Context, loan domain.Loan) error {
	f.created = append(f.created, loan)
	return nil
}

func (f *fakeLoanStore) UpdateLoan(_ context.Context, loan domain.Loan) error {
	f.updated = append(f.updated, loan)
	return nil
}

type fakePolicyStore struct {
	policies  map[uuid.UUID]policy.LoanPolicy
	schedules map[uuid.UUID]policy.FixedDueDateSchedule
}

func (f *fakePolicyStore) GetLoanPolicy(_ context.Context, id uuid.UUID) (policy.LoanPolicy, error) {
	pol, ok := f.policies[id]
	if !ok {
		return policy.LoanPolicy{}, domain.ErrNotFound
	}
	return pol, nil
}

func (f *fakePolicyStore) GetFixedDueDateSchedule(_ context.Context, id uuid.UUID) (policy.FixedDueDateSchedule, error) {
	schedule, ok := f.schedules[id]
	if !ok {
		return policy.FixedDueDateSchedule{}, domain.ErrNotFound
	}
	return schedule, nil
}

type fakeRuleSource struct {
	rules []rules.Rule
	err   error
}

func (f *fakeRuleSource) Rules(context.Context) ([]rules.Rule, error) {
	return f.rules, f.err
}

type fakeBlockSource struct {
	blocks map[uuid.UUID][]domain.PatronBlock
}

func (f *fakeBlockSource) ActiveBlocks(_ context.Context, userID uuid.UUID) ([]domain.PatronBlock, error) {
	return f.blocks[userID], nil
}

type fakePermissionSource struct {
	granted map[string]bool
}

func (f *fakePermissionSource) HasPermission(_ context.Context, _ uuid.UUID, permission string) (bool, error) {
	return f.granted[permission], nil
}

type fakeEventLog struct {
	appended []eventlog.Event
	versions map[uuid.UUID]int
}

func (f *fakeEventLog) Append(_ context.Context, _ uuid.UUID, _ int, events []eventlog.Event) error {
	f.appended = append(f.appended, events...)
	return nil
}

func (f *fakeEventLog) CurrentVersion(_ context.Context, loanID uuid.UUID) (int, error) {
	return f.versions[loanID], nil
}

// testEnv wires a service over in-memory stores seeded with one available
// item, one active patron and a single wildcard rule resolving to a rolling
// 14-day policy.
type testEnv struct {
	items       *fakeItemStore
	users       *fakeUserStore
	loans       *fakeLoanStore
	policies    *fakePolicyStore
	ruleSource  *fakeRuleSource
	blocks      *fakeBlockSource
	permissions *fakePermissionSource
	events      *fakeEventLog

	item   domain.Item
	user   domain.User
	policy policy.LoanPolicy
	now    time.Time
}

func newTestEnv() *testEnv {
	item := domain.Item{
		ID:                  uuid.New(),
		Barcode:             "item-1",
		Title:               "The Go Programming Language",
		MaterialTypeID:      uuid.New(),
		PermanentLoanTypeID: uuid.New(),
		Status:              domain.ItemStatusAvailable,
		Location: domain.Location{
			ID:            uuid.New(),
			LibraryID:     uuid.New(),
			CampusID:      uuid.New(),
			InstitutionID: uuid.New(),
		},
	}
	user := domain.User{
		ID:            uuid.New(),
		Barcode:       "user-1",
		Active:        true,
		PatronGroupID: uuid.New(),
	}
	pol := policy.LoanPolicy{
		ID:                uuid.New(),
		Name:              "Two week rolling",
		Loanable:          true,
		Profile:           policy.ProfileRolling,
		Period:            policy.Period{Duration: 14, Interval: policy.Days},
		UnlimitedRenewals: true,
		RenewFrom:         policy.RenewFromSystemDate,
	}

	return &testEnv{
		items: &fakeItemStore{
			items:  map[string]domain.Item{item.Barcode: item},
			queues: map[uuid.UUID]domain.RequestQueue{},
		},
		users: &fakeUserStore{
			users:         map[string]domain.User{user.Barcode: user},
			relationships: map[uuid.UUID]domain.ProxyRelationship{},
		},
		loans:    &fakeLoanStore{openLoans: map[uuid.UUID]domain.Loan{}},
		policies: &fakePolicyStore{policies: map[uuid.UUID]policy.LoanPolicy{pol.ID: pol}},
		ruleSource: &fakeRuleSource{rules: []rules.Rule{{
			Line:        1,
			ItemType:    rules.AnyCriterion(),
			LoanType:    rules.AnyCriterion(),
			PatronGroup: rules.AnyCriterion(),
			Location:    rules.AnyLocation(),
			Policies:    rules.PolicySet{LoanPolicyID: pol.ID},
		}}},
		blocks:      &fakeBlockSource{blocks: map[uuid.UUID][]domain.PatronBlock{}},
		permissions: &fakePermissionSource{granted: map[string]bool{}},
		events:      &fakeEventLog{versions: map[uuid.UUID]int{}},
		item:        item,
		user:        user,
		policy:      pol,
		now:         time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (e *testEnv) service() Service {
	return &service{
		items:       e.items,
		users:       e.users,
		loans:       e.loans,
		policies:    e.policies,
		ruleSource:  e.ruleSource,
		blocks:      e.blocks,
		permissions: e.permissions,
		events:      e.events,
		limiter:     rate.NewLimiter(rate.Inf, 0),
		now:         func() time.Time { return e.now },
	}
}

func (e *testEnv) checkOutRequest() CheckOutRequest {
	return CheckOutRequest{
		ItemBarcode:    e.item.Barcode,
		UserBarcode:    e.user.Barcode,
		ServicePointID: uuid.New(),
	}
}

func requireFailure(t *testing.T, err error) *validation.Failure {
	t.Helper()
	var failure *validation.Failure
	require.ErrorAs(t, err, &failure)
	return failure
}

func TestCheckOutHappyPath(t *testing.T) {
	env := newTestEnv()

	loan, err := env.service().CheckOut(context.Background(), env.checkOutRequest())
	require.NoError(t, err)

	assert.Equal(t, env.item.ID, loan.ItemID)
	assert.Equal(t, env.user.ID, loan.UserID)
	assert.Equal(t, env.policy.ID, loan.PolicyID)
	assert.Equal(t, domain.LoanStatusOpen, loan.Status)
	assert.Equal(t, domain.LoanActionCheckedOut, loan.Action)
	assert.True(t, loan.DueDate.Equal(env.now.AddDate(0, 0, 14)))

	require.Len(t, env.loans.created, 1)
	assert.Equal(t, domain.ItemStatusCheckedOut, env.items.statusUpdates[env.item.ID])

	require.Len(t, env.events.appended, 2)
	assert.Equal(t, eventlog.TypeLoanCheckedOut, env.events.appended[0].Type)
	assert.Equal(t, eventlog.TypeItemStatusChanged, env.events.appended[1].Type)
}

func TestCheckOutUsesSuppliedLoanDate(t *testing.T) {
	env := newTestEnv()
	req := env.checkOutRequest()
	req.LoanDate = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

	loan, err := env.service().CheckOut(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, loan.LoanDate.Equal(req.LoanDate))
	assert.True(t, loan.DueDate.Equal(req.LoanDate.AddDate(0, 0, 14)))
}

func TestCheckOutStatusFollowsTopRequest(t *testing.T) {
	tests := []struct {
		name string
		kind domain.RequestType
		want domain.ItemStatus
	}{
		{"hold", domain.RequestTypeHold, domain.ItemStatusCheckedOutHeld},
		{"recall", domain.RequestTypeRecall, domain.ItemStatusCheckedOutRecalled},
		{"page", domain.RequestTypePage, domain.ItemStatusCheckedOut},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.items.queues[env.item.ID] = domain.RequestQueue{Requests: []domain.Request{{
				ID:          uuid.New(),
				ItemID:      env.item.ID,
				RequesterID: env.user.ID,
				Type:        tc.kind,
				Status:      domain.RequestStatusOpenNotYetFilled,
				Position:    1,
			}}}

			_, err := env.service().CheckOut(context.Background(), env.checkOutRequest())
			require.NoError(t, err)
			assert.Equal(t, tc.want, env.items.statusUpdates[env.item.ID])
		})
	}
}

func TestCheckOutRefusedWhenRequestedByAnotherPatron(t *testing.T) {
	env := newTestEnv()
	env.items.queues[env.item.ID] = domain.RequestQueue{Requests: []domain.Request{{
		ID:          uuid.New(),
		ItemID:      env.item.ID,
		RequesterID: uuid.New(),
		Type:        domain.RequestTypeHold,
		Status:      domain.RequestStatusOpenNotYetFilled,
		Position:    1,
	}}}

	_, err := env.service().CheckOut(context.Background(), env.checkOutRequest())

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason("The item is requested by another patron"))
	assert.Empty(t, env.loans.created)
}

func TestCheckOutAggregatesEveryRefusalReason(t *testing.T) {
	env := newTestEnv()

	inactive := domain.User{
		ID:            uuid.New(),
		Barcode:       "inactive-1",
		Active:        false,
		PatronGroupID: env.user.PatronGroupID,
	}
	env.users.users[inactive.Barcode] = inactive
	env.blocks.blocks[inactive.ID] = []domain.PatronBlock{{
		Kind:           "fines",
		Message:        "Patron has reached their fine limit",
		BlocksCheckOut: true,
	}}

	notLoanable := env.policy
	notLoanable.Loanable = false
	env.policies.policies[notLoanable.ID] = notLoanable

	req := env.checkOutRequest()
	req.UserBarcode = inactive.Barcode

	_, err := env.service().CheckOut(context.Background(), req)

	// Every violated invariant is reported in one refusal.
	failure := requireFailure(t, err)
	require.Len(t, failure.Errors, 3)
	assert.True(t, failure.HasErrorWithReason("Cannot check out to inactive user"))
	assert.True(t, failure.HasErrorWithReason("Patron has reached their fine limit"))
	assert.True(t, failure.HasErrorWithReason("Item is not loanable"))
	assert.Empty(t, env.loans.created)
}

func TestCheckOutItemNotFound(t *testing.T) {
	env := newTestEnv()
	req := env.checkOutRequest()
	req.ItemBarcode = "missing"

	_, err := env.service().CheckOut(context.Background(), req)

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason("No item with barcode missing could be found"))
}

func TestCheckOutItemFetchFailureSuppressesDependentChecks(t *testing.T) {
	env := newTestEnv()
	env.items.fetchErr = errors.New("connection refused")

	_, err := env.service().CheckOut(context.Background(), env.checkOutRequest())

	// The fetch failure is the only reported error: item-dependent checks
	// and policy resolution are suppressed rather than cascading.
	failure := requireFailure(t, err)
	require.Len(t, failure.Errors, 1)
	assert.True(t, failure.HasErrorWithReason("Failed to fetch item with barcode item-1"))
}

func TestCheckOutRefusedWithoutServicePoint(t *testing.T) {
	env := newTestEnv()
	req := env.checkOutRequest()
	req.ServicePointID = uuid.Nil

	_, err := env.service().CheckOut(context.Background(), req)

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason("Check out must be performed at a service point"))
}

func TestCheckOutRefusedWhenItemAlreadyCheckedOut(t *testing.T) {
	env := newTestEnv()
	item := env.item.WithStatus(domain.ItemStatusCheckedOut)
	env.items.items[item.Barcode] = item

	_, err := env.service().CheckOut(context.Background(), env.checkOutRequest())

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason("Item is already checked out"))
}

func TestCheckOutRefusedForLostItem(t *testing.T) {
	env := newTestEnv()
	item := env.item.WithStatus(domain.ItemStatusDeclaredLost)
	env.items.items[item.Barcode] = item

	_, err := env.service().CheckOut(context.Background(), env.checkOutRequest())

	failure := requireFailure(t, err)
	require.Len(t, failure.Errors, 1)
	assert.Contains(t, failure.Errors[0].Message, "Declared lost")
}

func TestCheckOutRefusedAtItemLimit(t *testing.T) {
	env := newTestEnv()
	limited := env.policy
	limited.ItemLimit = 2
	env.policies.policies[limited.ID] = limited
	env.loans.activeCount = 2

	_, err := env.service().CheckOut(context.Background(), env.checkOutRequest())

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason(
		"Patron has reached maximum limit of 2 items for loan type"))
}

func TestCheckOutAllowedBelowItemLimit(t *testing.T) {
	env := newTestEnv()
	limited := env.policy
	limited.ItemLimit = 2
	env.policies.policies[limited.ID] = limited
	env.loans.activeCount = 1

	_, err := env.service().CheckOut(context.Background(), env.checkOutRequest())
	require.NoError(t, err)
}

func TestCheckOutPatronBlockOverrideWithPermission(t *testing.T) {
	env := newTestEnv()
	env.blocks.blocks[env.user.ID] = []domain.PatronBlock{{
		Message:        "Patron has reached their fine limit",
		BlocksCheckOut: true,
	}}
	env.permissions.granted["circulation.override-patron-block"] = true

	req := env.checkOutRequest()
	req.StaffID = uuid.New()
	req.Overrides = validation.BlockOverrides{
		PatronBlock: validation.Override{Requested: true, Comment: "fines waived at desk"},
	}

	loan, err := env.service().CheckOut(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, loan)
	require.Len(t, env.loans.created, 1)
}

func TestCheckOutPatronBlockOverrideWithoutPermission(t *testing.T) {
	env := newTestEnv()
	env.blocks.blocks[env.user.ID] = []domain.PatronBlock{{
		Message:        "Patron has reached their fine limit",
		BlocksCheckOut: true,
	}}

	req := env.checkOutRequest()
	req.StaffID = uuid.New()
	req.Overrides = validation.BlockOverrides{
		PatronBlock: validation.Override{Requested: true, Comment: "fines waived at desk"},
	}

	_, err := env.service().CheckOut(context.Background(), req)

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason("insufficient permissions to override block"))
	assert.Empty(t, env.loans.created)
}

func TestCheckOutNotLoanableOverrideUsesExplicitDueDate(t *testing.T) {
	env := newTestEnv()
	notLoanable := env.policy
	notLoanable.Loanable = false
	env.policies.policies[notLoanable.ID] = notLoanable
	env.permissions.granted["circulation.override-item-not-loanable-block"] = true

	dueDate := time.Date(2024, time.January, 8, 23, 59, 0, 0, time.UTC)
	req := env.checkOutRequest()
	req.StaffID = uuid.New()
	req.DueDate = dueDate
	req.Overrides = validation.BlockOverrides{
		ItemNotLoanableBlock: validation.Override{Requested: true, Comment: "reference desk exception"},
	}

	loan, err := env.service().CheckOut(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, loan.DueDate.Equal(dueDate))
}

func TestCheckOutNotLoanableOverrideRequiresDueDate(t *testing.T) {
	env := newTestEnv()
	notLoanable := env.policy
	notLoanable.Loanable = false
	env.policies.policies[notLoanable.ID] = notLoanable
	env.permissions.granted["circulation.override-item-not-loanable-block"] = true

	req := env.checkOutRequest()
	req.StaffID = uuid.New()
	req.Overrides = validation.BlockOverrides{
		ItemNotLoanableBlock: validation.Override{Requested: true, Comment: "reference desk exception"},
	}

	_, err := env.service().CheckOut(context.Background(), req)

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason(
		"override of item not loanable block requires an explicit due date"))
}

func TestCheckOutNoMatchingRuleIsServerError(t *testing.T) {
	env := newTestEnv()
	env.ruleSource.rules = nil

	_, err := env.service().CheckOut(context.Background(), env.checkOutRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrNoRuleMatch)
	var failure *validation.Failure
	assert.False(t, errors.As(err, &failure))
}

func TestCheckOutViaProxy(t *testing.T) {
	env := newTestEnv()
	proxy := domain.User{
		ID:            uuid.New(),
		Barcode:       "proxy-1",
		Active:        true,
		PatronGroupID: uuid.New(),
	}
	env.users.users[proxy.Barcode] = proxy
	env.users.relationships[proxy.ID] = domain.ProxyRelationship{
		ID:          uuid.New(),
		UserID:      env.user.ID,
		ProxyUserID: proxy.ID,
		Active:      true,
	}

	req := env.checkOutRequest()
	req.ProxyUserBarcode = proxy.Barcode

	loan, err := env.service().CheckOut(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, loan.UserID)
	assert.Equal(t, proxy.ID, loan.ProxyUserID)
}

func TestCheckOutRefusedForInvalidProxyRelationship(t *testing.T) {
	env := newTestEnv()
	proxy := domain.User{
		ID:            uuid.New(),
		Barcode:       "proxy-1",
		Active:        true,
		PatronGroupID: uuid.New(),
	}
	env.users.users[proxy.Barcode] = proxy

	req := env.checkOutRequest()
	req.ProxyUserBarcode = proxy.Barcode

	_, err := env.service().CheckOut(context.Background(), req)

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason(
		"Cannot check out item via proxy when relationship is invalid"))
}

func TestRenewHappyPath(t *testing.T) {
	env := newTestEnv()
	open := domain.Loan{
		ID:       uuid.New(),
		ItemID:   env.item.ID,
		UserID:   env.user.ID,
		LoanDate: env.now.AddDate(0, 0, -10),
		DueDate:  env.now.AddDate(0, 0, 4),
		Status:   domain.LoanStatusOpen,
		Action:   domain.LoanActionCheckedOut,
	}
	env.loans.openLoans[env.item.ID] = open

	loan, err := env.service().Renew(context.Background(), RenewRequest{
		ItemBarcode: env.item.Barcode,
		UserBarcode: env.user.Barcode,
	})
	require.NoError(t, err)

	assert.True(t, loan.DueDate.Equal(env.now.AddDate(0, 0, 14)))
	assert.Equal(t, 1, loan.RenewalCount)
	assert.Equal(t, domain.LoanActionRenewed, loan.Action)

	require.Len(t, env.loans.updated, 1)
	require.Len(t, env.events.appended, 1)
	assert.Equal(t, eventlog.TypeLoanRenewed, env.events.appended[0].Type)
}

func TestRenewRefusedWhenNotCheckedOut(t *testing.T) {
	env := newTestEnv()

	_, err := env.service().Renew(context.Background(), RenewRequest{
		ItemBarcode: env.item.Barcode,
		UserBarcode: env.user.Barcode,
	})

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason("Cannot renew item that is not checked out"))
}

func TestRenewRefusedForDifferentUser(t *testing.T) {
	env := newTestEnv()
	env.loans.openLoans[env.item.ID] = domain.Loan{
		ID:      uuid.New(),
		ItemID:  env.item.ID,
		UserID:  uuid.New(),
		DueDate: env.now.AddDate(0, 0, 4),
		Status:  domain.LoanStatusOpen,
	}

	_, err := env.service().Renew(context.Background(), RenewRequest{
		ItemBarcode: env.item.Barcode,
		UserBarcode: env.user.Barcode,
	})

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason("Cannot renew item checked out to different user"))
	assert.Empty(t, env.loans.updated)
}

func TestRenewAggregatesPolicyAndPatronFailures(t *testing.T) {
	env := newTestEnv()

	limited := env.policy
	limited.UnlimitedRenewals = false
	limited.RenewalsAllowed = 1
	env.policies.policies[limited.ID] = limited

	env.blocks.blocks[env.user.ID] = []domain.PatronBlock{{
		Message:       "Patron has overdue recalls",
		BlocksRenewal: true,
	}}

	env.loans.openLoans[env.item.ID] = domain.Loan{
		ID:           uuid.New(),
		ItemID:       env.item.ID,
		UserID:       env.user.ID,
		DueDate:      env.now.AddDate(0, 0, 4),
		RenewalCount: 1,
		Status:       domain.LoanStatusOpen,
	}

	_, err := env.service().Renew(context.Background(), RenewRequest{
		ItemBarcode: env.item.Barcode,
		UserBarcode: env.user.Barcode,
	})

	failure := requireFailure(t, err)
	require.Len(t, failure.Errors, 2)
	assert.True(t, failure.HasErrorWithReason("Patron has overdue recalls"))
	assert.True(t, failure.HasErrorWithReason("loan has reached its maximum number of renewals"))
	assert.Empty(t, env.loans.updated)
}

func TestRenewItemNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.service().Renew(context.Background(), RenewRequest{
		ItemBarcode: "missing",
		UserBarcode: env.user.Barcode,
	})

	failure := requireFailure(t, err)
	assert.True(t, failure.HasErrorWithReason("No item with barcode missing could be found"))
}
