package domain

import "errors"

var (
	// ErrNotFound is returned when a looked-up entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStructuralConflict is returned when inserting a location whose path
	// would collide with an existing node. The caller (location loading)
	// decides whether to skip or abort.
	ErrStructuralConflict = errors.New("location path conflict")

	// ErrReconciliationRace is a transient group-lock or serialization
	// conflict during duplicate reconciliation. The save path retries a
	// bounded number of times before surfacing it.
	ErrReconciliationRace = errors.New("duplicate reconciliation conflict")

	// ErrIdentityDisabled is returned when every configured identity field
	// is invalid: detection degrades to disabled, and the operator must be
	// told rather than the condition being swallowed.
	ErrIdentityDisabled = errors.New("all configured identity fields are invalid")
)
