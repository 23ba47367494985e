package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"va-core/internal/dedup"
	"va-core/internal/domain"
	"va-core/internal/identity"
	"va-core/internal/repository"
)

// RecordService is the save path for verbal autopsy records: create-vs-update
// keying on the external instance id, then duplicate reconciliation inside a
// group-locked transaction, with bounded retries on lock conflicts.
type RecordService struct {
	vaRepo     repository.VARepository
	reconciler *dedup.Reconciler
	maxRetries int
	logger     *zap.Logger
}

func NewRecordService(vaRepo repository.VARepository, reconciler *dedup.Reconciler, maxRetries int, logger *zap.Logger) *RecordService {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RecordService{vaRepo: vaRepo, reconciler: reconciler, maxRetries: maxRetries, logger: logger}
}

// SaveResult reports the persisted record and what reconciliation decided.
type SaveResult struct {
	VA             *domain.VerbalAutopsy
	Reconciliation *dedup.Result
	Created        bool
}

// SaveRecord persists a record. A record with no VAID is keyed by InstanceID
// first (ingestion sends updates under the same external submission id);
// with no match it is a create. The whole save is atomic: on failure the
// record keeps its previous hash and flags.
func (s *RecordService) SaveRecord(ctx context.Context, va *domain.VerbalAutopsy) (*SaveResult, error) {
	if va.VAID == "" && va.InstanceID != "" {
		existing, err := s.vaRepo.GetVAByInstanceID(ctx, va.InstanceID)
		if err == nil {
			va.VAID = existing.VAID
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	created := false
	if va.VAID == "" {
		va.VAID = uuid.NewString()
		created = true
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		res, err := s.trySave(ctx, va)
		if err == nil {
			res.Created = created
			return res, nil
		}
		if !repository.IsRetryableSaveError(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("reconciliation conflict, retrying save",
			zap.String("va_id", va.VAID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, fmt.Errorf("could not save record %s after %d attempts: %w",
		va.VAID, s.maxRetries, errors.Join(domain.ErrReconciliationRace, lastErr))
}

// trySave runs one attempt from scratch: re-read current state, recompute the
// hash, lock the groups the save may touch, reconcile, persist.
func (s *RecordService) trySave(ctx context.Context, va *domain.VerbalAutopsy) (*SaveResult, error) {
	previous, err := s.vaRepo.GetVA(ctx, va.VAID)
	if errors.Is(err, domain.ErrNotFound) {
		previous = nil
	} else if err != nil {
		return nil, err
	}

	// Creation time is sticky across edits; an explicitly provided value
	// stands (merge tooling backdates records on purpose).
	if va.CreatedAt.IsZero() && previous != nil {
		va.CreatedAt = previous.CreatedAt
	}

	// Ingestion sends partial field sets: answers the update does not carry
	// keep their stored values. This must happen before hashing, or absent
	// identity fields would read as unknown and move the record to a wrong
	// identity group.
	if previous != nil {
		for field, value := range previous.Answers {
			if _, ok := va.Answers[field]; !ok {
				va.SetAnswer(field, value)
			}
		}
	}

	lockHashes := []string{identity.ComputeHash(va, s.reconciler.Fields())}
	if previous != nil && previous.UniqueVAIdentifier != "" {
		lockHashes = append(lockHashes, previous.UniqueVAIdentifier)
	}

	var result *dedup.Result
	err = s.vaRepo.SaveVA(ctx, va, lockHashes, func(ctx context.Context, gs repository.GroupStore, prev *domain.VerbalAutopsy) error {
		var rerr error
		result, rerr = s.reconciler.Reconcile(ctx, gs, va, prev)
		return rerr
	})
	if err != nil {
		return nil, err
	}

	if result.Reconciled {
		s.logger.Debug("record reconciled",
			zap.String("va_id", va.VAID),
			zap.String("unique_va_identifier", result.Hash),
			zap.Bool("duplicate", result.Duplicate),
			zap.String("promoted", result.PromotedID),
			zap.String("demoted", result.DemotedID))
	}
	return &SaveResult{VA: va, Reconciliation: result}, nil
}

// GetRecord looks a record up by id.
func (s *RecordService) GetRecord(ctx context.Context, vaID string) (*domain.VerbalAutopsy, error) {
	return s.vaRepo.GetVA(ctx, vaID)
}
