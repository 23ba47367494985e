package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"va-core/internal/domain"
	"va-core/internal/repository"
	"va-core/internal/store"
)

// ScopeService resolves which records a user may see. The restriction union
// is computed once per request from descendant range scans (one per
// restricted node, cached), never by re-querying per record.
type ScopeService struct {
	locRepo  repository.LocationsRepository
	vaRepo   repository.VARepository
	kv       store.KV
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewScopeService(locRepo repository.LocationsRepository, vaRepo repository.VARepository, kv store.KV, cacheTTL time.Duration, logger *zap.Logger) *ScopeService {
	return &ScopeService{locRepo: locRepo, vaRepo: vaRepo, kv: kv, cacheTTL: cacheTTL, logger: logger}
}

// ScopedRecords returns a lazy query over exactly the records the user is
// authorized to see, optionally bounded by death date (stored-string
// convention, see repository.VAQuery). The query is a description; compose
// further filters on it and execute with Records/Count as many times as
// needed.
func (s *ScopeService) ScopedRecords(ctx context.Context, user *domain.User, dateLower, dateUpper string) (repository.VAQuery, error) {
	q := repository.VAQuery{}.Between(dateLower, dateUpper)

	if user.Unrestricted() {
		return q, nil
	}

	union := map[string]struct{}{}
	for _, locationID := range user.LocationRestrictions {
		ids, err := s.subtreeIDs(ctx, locationID)
		if err != nil {
			return q, err
		}
		for _, id := range ids {
			union[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return q.AtLocations(ids), nil
}

// Records executes a query description.
func (s *ScopeService) Records(ctx context.Context, q repository.VAQuery) ([]*domain.VerbalAutopsy, error) {
	return s.vaRepo.ListVAs(ctx, q)
}

// Count executes a query description as a count.
func (s *ScopeService) Count(ctx context.Context, q repository.VAQuery) (int, error) {
	return s.vaRepo.CountVAs(ctx, q)
}

// subtreeIDs returns {node} ∪ descendants(node) as location ids. A
// restriction pointing at a deleted/orphaned node contributes nothing rather
// than failing the request.
func (s *ScopeService) subtreeIDs(ctx context.Context, locationID string) ([]string, error) {
	key := scopeCacheKey(locationID)
	if s.kv != nil {
		cached, err := s.kv.Get(ctx, key)
		if err == nil {
			var ids []string
			if err := json.Unmarshal([]byte(cached), &ids); err == nil {
				return ids, nil
			}
		} else if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("failed to read cached subtree ids",
				zap.String("location_id", locationID), zap.Error(err))
		}
	}

	l, err := s.locRepo.GetLocation(ctx, locationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	descendants, err := s.locRepo.Descendants(ctx, l.Path)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(descendants)+1)
	ids = append(ids, l.LocationID)
	for _, d := range descendants {
		ids = append(ids, d.LocationID)
	}

	if s.kv != nil {
		if encoded, err := json.Marshal(ids); err == nil {
			if err := s.kv.Set(ctx, key, string(encoded), s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache subtree ids",
					zap.String("location_id", locationID), zap.Error(err))
			}
		}
	}
	return ids, nil
}

func scopeCacheKey(locationID string) string {
	return "va:scope:" + locationID
}
