package dedup

import (
	"context"

	"go.uber.org/zap"

	"va-core/internal/repository"
)

// BulkMarker recomputes duplicate flags for the whole record store, used
// after enabling detection or after an import that bypassed per-record
// reconciliation. It must not run concurrently with per-record saves against
// the same records; run it in a maintenance window.
type BulkMarker struct {
	repo   repository.VARepository
	fields []string
	logger *zap.Logger
}

// BulkResult reports row counts from one bulk run.
type BulkResult struct {
	HashesRegenerated int
	FlagsChanged      int
}

func NewBulkMarker(repo repository.VARepository, fields []string, logger *zap.Logger) *BulkMarker {
	return &BulkMarker{repo: repo, fields: fields, logger: logger}
}

// RegenerateHashes recomputes every record's identity hash under the current
// configuration.
func (b *BulkMarker) RegenerateHashes(ctx context.Context) (int, error) {
	n, err := b.repo.RegenerateHashes(ctx, b.fields)
	if err != nil {
		return 0, err
	}
	b.logger.Info("regenerated identity hashes", zap.Int("changed", n))
	return n, nil
}

// MarkDuplicates recomputes all duplicate flags. Grouping is only correct
// when every stored hash reflects the current identity-field configuration,
// so by default hashes are regenerated first; pass regenerateFirst=false
// only when the caller has already done so. Idempotent: a second run with no
// intervening writes changes nothing.
func (b *BulkMarker) MarkDuplicates(ctx context.Context, regenerateFirst bool) (*BulkResult, error) {
	res := &BulkResult{}

	if regenerateFirst {
		n, err := b.RegenerateHashes(ctx)
		if err != nil {
			return nil, err
		}
		res.HashesRegenerated = n
	}

	n, err := b.repo.MarkDuplicates(ctx)
	if err != nil {
		return nil, err
	}
	res.FlagsChanged = n
	b.logger.Info("bulk duplicate marking complete",
		zap.Int("hashes_regenerated", res.HashesRegenerated),
		zap.Int("flags_changed", res.FlagsChanged))
	return res, nil
}
