// internal/validation/override.go
package validation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Override is one requested bypass of a block type.
type Override struct {
	Requested bool   `json:"requested"`
	Comment   string `json:"comment"`
}

// BlockOverrides carries every override a checkout request asked for,
// together with an overall justification comment.
type BlockOverrides struct {
	PatronBlock          Override `json:"patronBlock"`
	ItemLimitBlock       Override `json:"itemLimitBlock"`
	ItemNotLoanableBlock Override `json:"itemNotLoanableBlock"`
	Comment              string   `json:"comment"`
}

// For returns the override requested for the given block type.
func (o BlockOverrides) For(block BlockType) Override {
	switch block {
	case PatronBlock:
		return o.PatronBlock
	case ItemLimitBlock:
		return o.ItemLimitBlock
	case ItemNotLoanableBlock:
		return o.ItemNotLoanableBlock
	}
	return Override{}
}

// justification returns the comment attached to the override, falling back
// to the request-level comment.
func (o BlockOverrides) justification(block BlockType) string {
	if c := o.For(block).Comment; c != "" {
		return c
	}
	return o.Comment
}

// PermissionSource answers whether a staff member holds a named permission.
// It is consulted only on the override path.
type PermissionSource interface {
	HasPermission(ctx context.Context, staffID uuid.UUID, permission string) (bool, error)
}

// OverridingValidator replaces a business-rule validator whose block type was
// requested for override. It never evaluates the underlying rule: it checks
// that the caller holds the override permission and supplied a justification,
// and records the override on success. Its failures are reported under the
// same kind the bypassed validator would have used.
type OverridingValidator struct {
	Block       BlockType
	Overrides   BlockOverrides
	StaffID     uuid.UUID
	Permissions PermissionSource
}

// Validate performs the permission and justification checks, recording the
// override into the handler when both pass.
func (v OverridingValidator) Validate(ctx context.Context, h *Handler) error {
	comment := v.Overrides.justification(v.Block)
	if comment == "" {
		return h.Handle(SingleFailure(
			"override justification comment is required",
			"blockType", string(v.Block)), v.Block.Kind())
	}

	ok, err := v.Permissions.HasPermission(ctx, v.StaffID, v.Block.Permission())
	if err != nil {
		return fmt.Errorf("check override permission: %w", err)
	}
	if !ok {
		return h.Handle(SingleFailure(
			"insufficient permissions to override block",
			"permission", v.Block.Permission()), v.Block.Kind())
	}

	h.RecordOverride(v.Block, comment)
	return nil
}
