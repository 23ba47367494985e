package repository

import (
	"context"

	"va-core/internal/domain"
)

// GroupStore is the view of an identity-hash group that the reconciliation
// engine works against. Implementations are bound to the transaction (and
// group locks) of the surrounding SaveVA call.
type GroupStore interface {
	// OldestInGroup returns the earliest-created record sharing hash,
	// excluding excludeID and soft-deleted rows, with the primary key as
	// tie-break. Returns (nil, nil) when the group is empty.
	OldestInGroup(ctx context.Context, hash string, excludeID string) (*domain.VerbalAutopsy, error)

	// SetDuplicate flips the duplicate flag of another record in the group
	// (promotion/demotion) within the same transaction.
	SetDuplicate(ctx context.Context, vaID string, duplicate bool) error
}

// ReconcileFunc runs the duplicate-reconciliation step inside the save
// transaction. previous is the currently persisted state of the record, nil
// on create. The function mutates the record being saved (hash, duplicate
// flag); returning an error rolls the whole save back.
type ReconcileFunc func(ctx context.Context, gs GroupStore, previous *domain.VerbalAutopsy) error

// VARepository is the persistence surface for verbal autopsy records.
type VARepository interface {
	GetVA(ctx context.Context, vaID string) (*domain.VerbalAutopsy, error)
	GetVAByInstanceID(ctx context.Context, instanceID string) (*domain.VerbalAutopsy, error)

	ListVAs(ctx context.Context, q VAQuery) ([]*domain.VerbalAutopsy, error)
	CountVAs(ctx context.Context, q VAQuery) (int, error)

	// SaveVA persists the record atomically with its reconciliation step.
	// lockHashes names the identity-hash groups (old and new) the save may
	// touch; the implementation serializes against concurrent saves on those
	// groups for the duration of the transaction. If the record's persisted
	// hash turns out not to be covered by lockHashes (it moved between the
	// caller's read and the lock acquisition), SaveVA fails with
	// domain.ErrReconciliationRace and the caller retries from scratch.
	SaveVA(ctx context.Context, va *domain.VerbalAutopsy, lockHashes []string, reconcile ReconcileFunc) error

	// RegenerateHashes recomputes unique_va_identifier for every record
	// under the given identity-field configuration and returns how many rows
	// changed. An empty field list clears all hashes (detection disabled).
	RegenerateHashes(ctx context.Context, fields []string) (int, error)

	// MarkDuplicates recomputes every duplicate flag from current hashes:
	// per non-empty hash group the earliest record is canonical, the rest
	// are duplicates, singleton groups are canonical. Idempotent; returns
	// how many flags changed. Not safe concurrently with SaveVA.
	MarkDuplicates(ctx context.Context) (int, error)
}
