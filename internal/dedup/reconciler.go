// Package dedup maintains the duplicate invariant over verbal autopsy
// records: among all records sharing a non-empty identity hash, exactly one
// is non-duplicate, and it is the earliest-created member of the group.
package dedup

import (
	"context"

	"go.uber.org/zap"

	"va-core/internal/domain"
	"va-core/internal/identity"
	"va-core/internal/repository"
)

// Result reports what one reconciliation step decided. PromotedID/DemotedID
// name other records in the touched groups whose duplicate flag was flipped
// in the same transaction.
type Result struct {
	// Reconciled is false when detection is disabled or no identity field
	// changed; hash and flag were left untouched in that case.
	Reconciled bool
	Hash       string
	Duplicate  bool
	PromotedID string
	DemotedID  string
}

// Reconciler runs the per-save duplicate reconciliation step. The identity
// field list is validated once at construction and threaded explicitly, so
// tests can vary the configuration per instance.
type Reconciler struct {
	fields []string
	logger *zap.Logger
}

// NewReconciler validates the configured identity fields (unknown names are
// dropped with a warning). err is domain.ErrIdentityDisabled when a
// non-empty configuration validates down to nothing; the returned reconciler
// is still usable and behaves as disabled.
func NewReconciler(configured []string, logger *zap.Logger) (*Reconciler, error) {
	fields, err := identity.ValidateFields(configured, logger)
	return &Reconciler{fields: fields, logger: logger}, err
}

// Enabled reports whether duplicate detection is active.
func (r *Reconciler) Enabled() bool {
	return len(r.fields) > 0
}

// Fields returns the validated identity field list, in configured order.
func (r *Reconciler) Fields() []string {
	return append([]string(nil), r.fields...)
}

// Reconcile decides the record's identity hash and duplicate flag before it
// is persisted, re-flagging other members of the old and new identity groups
// as needed. previous is the persisted state (nil on create). Must run
// inside a transaction serialized on every group it may touch; gs is the
// transaction-bound group view.
func (r *Reconciler) Reconcile(ctx context.Context, gs repository.GroupStore, va, previous *domain.VerbalAutopsy) (*Result, error) {
	if !r.Enabled() {
		if previous != nil {
			va.UniqueVAIdentifier = previous.UniqueVAIdentifier
			va.Duplicate = previous.Duplicate
		}
		return &Result{}, nil
	}

	if previous == nil {
		return r.reconcileCreate(ctx, gs, va)
	}
	return r.reconcileUpdate(ctx, gs, va, previous)
}

func (r *Reconciler) reconcileCreate(ctx context.Context, gs repository.GroupStore, va *domain.VerbalAutopsy) (*Result, error) {
	va.UniqueVAIdentifier = identity.ComputeHash(va, r.fields)

	// Any record already sharing the hash is necessarily older than one
	// being created now, so the new record can only join as a duplicate.
	oldest, err := gs.OldestInGroup(ctx, va.UniqueVAIdentifier, va.VAID)
	if err != nil {
		return nil, err
	}
	va.Duplicate = oldest != nil

	return &Result{Reconciled: true, Hash: va.UniqueVAIdentifier, Duplicate: va.Duplicate}, nil
}

func (r *Reconciler) reconcileUpdate(ctx context.Context, gs repository.GroupStore, va, previous *domain.VerbalAutopsy) (*Result, error) {
	if !identity.AnyFieldChanged(va, previous, r.fields) {
		va.UniqueVAIdentifier = previous.UniqueVAIdentifier
		va.Duplicate = previous.Duplicate
		return &Result{}, nil
	}

	va.UniqueVAIdentifier = identity.ComputeHash(va, r.fields)
	res := &Result{Reconciled: true, Hash: va.UniqueVAIdentifier}

	// Leaving the old group: if the edited record was its canonical member,
	// the earliest survivor takes over. Promoting unconditionally is safe;
	// a survivor that was already canonical stays canonical.
	survivor, err := gs.OldestInGroup(ctx, previous.UniqueVAIdentifier, va.VAID)
	if err != nil {
		return nil, err
	}
	if survivor != nil {
		if err := gs.SetDuplicate(ctx, survivor.VAID, false); err != nil {
			return nil, err
		}
		res.PromotedID = survivor.VAID
		r.logger.Debug("promoted new canonical record for previous identity group",
			zap.String("va_id", survivor.VAID),
			zap.String("unique_va_identifier", previous.UniqueVAIdentifier))
	}

	// Joining the new group: oldest wins. A backdated or merged record can
	// be older than the incumbent canonical, which then gets demoted.
	incumbent, err := gs.OldestInGroup(ctx, va.UniqueVAIdentifier, va.VAID)
	if err != nil {
		return nil, err
	}
	switch {
	case incumbent == nil:
		va.Duplicate = false
	case incumbent.CreatedBefore(va):
		va.Duplicate = true
	default:
		if err := gs.SetDuplicate(ctx, incumbent.VAID, true); err != nil {
			return nil, err
		}
		va.Duplicate = false
		res.DemotedID = incumbent.VAID
		r.logger.Debug("demoted younger canonical record in new identity group",
			zap.String("va_id", incumbent.VAID),
			zap.String("unique_va_identifier", va.UniqueVAIdentifier))
	}

	res.Duplicate = va.Duplicate
	return res, nil
}
