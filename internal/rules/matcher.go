// internal/rules/matcher.go
package rules

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNoRuleMatch means no rule in the table matched the transaction
// context. This is a configuration fault, not a validation error.
var ErrNoRuleMatch = errors.New("no matching circulation rule")

// Match is the resolved output of rule matching for one policy category.
type Match struct {
	PolicyID    uuid.UUID
	Line        int
	Specificity int
}

// Matcher resolves policy ids from a priority-ordered rule table. Among the
// rules satisfied by a context the most specific one wins; rules of equal
// specificity fall back to declaration order, first declared wins.
type Matcher struct {
	rules []Rule
}

// NewMatcher builds a matcher over the given table. The slice order is the
// declaration priority order.
func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

// Apply resolves the policy governing the context for one category. A rule
// that is silent for the category is skipped even when its predicates match.
func (m *Matcher) Apply(ctx Context, category Category) (Match, error) {
	best := Match{Specificity: -1}
	found := false

	for _, rule := range m.rules {
		if !rule.matches(ctx) {
			continue
		}

		policyID := rule.Policies.For(category)
		if policyID == uuid.Nil {
			continue
		}

		if spec := rule.specificity(); spec > best.Specificity {
			best = Match{PolicyID: policyID, Line: rule.Line, Specificity: spec}
			found = true
		}
	}

	if !found {
		return Match{}, fmt.Errorf("%w for category %q", ErrNoRuleMatch, category)
	}
	return best, nil
}

// ApplyAll resolves every policy category for the context in one pass per
// category over the table.
func (m *Matcher) ApplyAll(ctx Context) (map[Category]Match, error) {
	matches := make(map[Category]Match, len(Categories))
	for _, category := range Categories {
		match, err := m.Apply(ctx, category)
		if err != nil {
			return nil, err
		}
		matches[category] = match
	}
	return matches, nil
}
