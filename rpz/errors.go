package rpz

import "errors"

// Sentinel errors for five kinds of failure. The index itself returns
// only ErrBadOwnerFormat and ErrInternalInvariantViolated; the other
// three are defined for callers to match on. Wrap with fmt.Errorf("%w: ...") at the call site for context; callers
// match with errors.Is.
var (
	// ErrBadOwnerFormat means an owner name failed canonical parsing, or
	// failed the parse-then-encode round trip check (badname in rpz.c).
	ErrBadOwnerFormat = errors.New("rpz: owner name is not valid canonical RPZ form")

	// ErrDuplicateTrigger means an Add was attempted for a trigger that
	// already exists for that zone.
	ErrDuplicateTrigger = errors.New("rpz: trigger already exists for zone")

	// ErrOutOfMemory is returned when a node allocation would exceed a
	// configured memory bound. The index itself does not enforce a
	// bound; this exists so a caller-supplied allocator can surface one.
	ErrOutOfMemory = errors.New("rpz: out of memory")

	// ErrNodeNotFound means a Delete was attempted for a trigger that is
	// not present for that zone.
	ErrNodeNotFound = errors.New("rpz: trigger not found for zone")

	// ErrInternalInvariantViolated means a consistency check the index
	// relies on (a summary bit count, a have-summary transition) failed;
	// this always indicates a bug rather than bad input.
	ErrInternalInvariantViolated = errors.New("rpz: internal invariant violated")
)
