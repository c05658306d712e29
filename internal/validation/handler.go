// internal/validation/handler.go
package validation

import (
	"sync"
)

// recordedFailure is one failure keyed by its taxonomy kind.
type recordedFailure struct {
	kind Kind
	err  error
}

// OverrideRecord marks that a block was explicitly bypassed rather than
// evaluated.
type OverrideRecord struct {
	Block   BlockType
	Comment string
}

// Handler collects failures from the validator pipeline. In deferred mode
// every failure is recorded and processing continues, so the complete set of
// violated invariants is discovered before the transaction is refused. In
// fail-fast mode the first failure is returned to the caller immediately.
//
// A handler is request-scoped. The write set is guarded so that validators
// for the same transaction may contribute concurrently.
type Handler struct {
	mu        sync.Mutex
	deferred  bool
	failures  []recordedFailure
	overrides []OverrideRecord
}

// NewDeferFailureHandler returns a handler that aggregates failures until the
// end of the pipeline.
func NewDeferFailureHandler() *Handler {
	return &Handler{deferred: true}
}

// NewFailFastHandler returns a handler that surfaces the first failure it is
// given.
func NewFailFastHandler() *Handler {
	return &Handler{}
}

// Handle records a validator outcome under the given kind. A nil error is a
// pass and is ignored. In deferred mode the failure is recorded and nil is
// returned so the pipeline continues; in fail-fast mode the failure is
// returned unchanged.
func (h *Handler) Handle(err error, kind Kind) error {
	if err == nil {
		return nil
	}

	if !h.deferred {
		return err
	}

	h.mu.Lock()
	h.failures = append(h.failures, recordedFailure{kind: kind, err: err})
	h.mu.Unlock()
	return nil
}

// HasAny reports whether a failure has been recorded under any of the given
// kinds. Validators gated on data that failed to fetch use this to skip
// rather than run against missing records.
func (h *Handler) HasAny(kinds ...Kind) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, f := range h.failures {
		for _, k := range kinds {
			if f.kind == k {
				return true
			}
		}
	}
	return false
}

// RecordOverride notes that the given block was bypassed by an authorised
// caller instead of producing a failure.
func (h *Handler) RecordOverride(block BlockType, comment string) {
	h.mu.Lock()
	h.overrides = append(h.overrides, OverrideRecord{Block: block, Comment: comment})
	h.mu.Unlock()
}

// Overrides returns the overrides recorded during the pipeline.
func (h *Handler) Overrides() []OverrideRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]OverrideRecord(nil), h.overrides...)
}

// Failed reports whether any failure has been recorded.
func (h *Handler) Failed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.failures) > 0
}

// Failure assembles the recorded failures into a single aggregate error.
// Validation errors are merged into one Failure preserving pipeline order.
// A recorded failure that is not a validation failure (an unexpected server
// fault) takes precedence and is returned unchanged. Returns nil when
// nothing failed.
func (h *Handler) Failure() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.failures) == 0 {
		return nil
	}

	var errors []*ValidationError
	for _, f := range h.failures {
		switch e := f.err.(type) {
		case *Failure:
			errors = append(errors, e.Errors...)
		case *ValidationError:
			errors = append(errors, e)
		default:
			return f.err
		}
	}
	return NewFailure(errors...)
}
