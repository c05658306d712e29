// internal/rules/rules.go
package rules

import (
	"github.com/google/uuid"
)

// Category is one of the policy kinds a circulation rule can name. Every
// category is resolved independently from the same rule table.
type Category string

const (
	LoanPolicyCategory        Category = "loan"
	RequestPolicyCategory     Category = "request"
	NoticePolicyCategory      Category = "notice"
	OverdueFinePolicyCategory Category = "overdue-fine"
	LostItemPolicyCategory    Category = "lost-item"
)

// Categories lists every policy category in resolution order.
var Categories = []Category{
	LoanPolicyCategory,
	RequestPolicyCategory,
	NoticePolicyCategory,
	OverdueFinePolicyCategory,
	LostItemPolicyCategory,
}

// Context carries the attributes of one transaction that rules match on.
type Context struct {
	ItemTypeID    uuid.UUID
	LoanTypeID    uuid.UUID
	PatronGroupID uuid.UUID
	LocationID    uuid.UUID
	LibraryID     uuid.UUID
	CampusID      uuid.UUID
	InstitutionID uuid.UUID
}

// LocationLevel selects which ancestor of the shelving location a location
// predicate targets.
type LocationLevel string

const (
	ShelvingLocation LocationLevel = "location"
	Library          LocationLevel = "library"
	Campus           LocationLevel = "campus"
	Institution      LocationLevel = "institution"
)

// Criterion is one attribute predicate: a wildcard, or a named group of one
// or more ids.
type Criterion struct {
	Any bool
	IDs []uuid.UUID
}

// AnyCriterion is the wildcard predicate.
func AnyCriterion() Criterion {
	return Criterion{Any: true}
}

// Exact builds a predicate matching the given ids.
func Exact(ids ...uuid.UUID) Criterion {
	return Criterion{IDs: ids}
}

func (c Criterion) matches(id uuid.UUID) bool {
	if c.Any {
		return true
	}
	for _, candidate := range c.IDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// LocationCriterion is a location predicate evaluated at one ancestry level.
type LocationCriterion struct {
	Any   bool
	Level LocationLevel
	IDs   []uuid.UUID
}

// AnyLocation is the wildcard location predicate.
func AnyLocation() LocationCriterion {
	return LocationCriterion{Any: true}
}

// AtLevel builds a location predicate for the given ancestry level.
func AtLevel(level LocationLevel, ids ...uuid.UUID) LocationCriterion {
	return LocationCriterion{Level: level, IDs: ids}
}

func (c LocationCriterion) matches(ctx Context) bool {
	if c.Any {
		return true
	}

	var contextID uuid.UUID
	switch c.Level {
	case ShelvingLocation:
		contextID = ctx.LocationID
	case Library:
		contextID = ctx.LibraryID
	case Campus:
		contextID = ctx.CampusID
	case Institution:
		contextID = ctx.InstitutionID
	default:
		return false
	}

	for _, candidate := range c.IDs {
		if candidate == contextID {
			return true
		}
	}
	return false
}

// PolicySet names the policy applied per category when a rule matches. A nil
// id means the rule is silent for that category.
type PolicySet struct {
	LoanPolicyID        uuid.UUID
	RequestPolicyID     uuid.UUID
	NoticePolicyID      uuid.UUID
	OverdueFinePolicyID uuid.UUID
	LostItemPolicyID    uuid.UUID
}

// For returns the policy id the set names for the category.
func (s PolicySet) For(category Category) uuid.UUID {
	switch category {
	case LoanPolicyCategory:
		return s.LoanPolicyID
	case RequestPolicyCategory:
		return s.RequestPolicyID
	case NoticePolicyCategory:
		return s.NoticePolicyID
	case OverdueFinePolicyCategory:
		return s.OverdueFinePolicyID
	case LostItemPolicyCategory:
		return s.LostItemPolicyID
	}
	return uuid.Nil
}

// Rule is one prioritised clause of the circulation rule table: a
// conjunction of attribute predicates mapped to the policies that govern a
// matching transaction.
type Rule struct {
	Line        int
	ItemType    Criterion
	LoanType    Criterion
	PatronGroup Criterion
	Location    LocationCriterion
	Policies    PolicySet
}

func (r Rule) matches(ctx Context) bool {
	return r.ItemType.matches(ctx.ItemTypeID) &&
		r.LoanType.matches(ctx.LoanTypeID) &&
		r.PatronGroup.matches(ctx.PatronGroupID) &&
		r.Location.matches(ctx)
}

// specificity ranks a rule by its exact predicates. The weights make the
// comparison lexicographic: an exact item type outranks any combination of
// the remaining predicates, then exact loan type, then patron group, then
// location. Wildcards contribute nothing.
func (r Rule) specificity() int {
	score := 0
	if !r.ItemType.Any {
		score |= 1 << 3
	}
	if !r.LoanType.Any {
		score |= 1 << 2
	}
	if !r.PatronGroup.Any {
		score |= 1 << 1
	}
	if !r.Location.Any {
		score |= 1
	}
	return score
}
