package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"va-core/internal/domain"
	"va-core/internal/identity"
)

// MemoryVARepository backs unit tests and DB-less operation. A single lock
// serializes every save, which trivially satisfies the per-group
// serialization SaveVA requires (stricter, never weaker).
type MemoryVARepository struct {
	mu  sync.RWMutex
	vas map[string]*domain.VerbalAutopsy
}

func NewMemoryVARepository() *MemoryVARepository {
	return &MemoryVARepository{vas: map[string]*domain.VerbalAutopsy{}}
}

func copyVA(va *domain.VerbalAutopsy) *domain.VerbalAutopsy {
	out := *va
	if va.Answers != nil {
		out.Answers = make(map[string]string, len(va.Answers))
		for k, v := range va.Answers {
			out.Answers[k] = v
		}
	}
	return &out
}

func (r *MemoryVARepository) GetVA(ctx context.Context, vaID string) (*domain.VerbalAutopsy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	va, ok := r.vas[vaID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyVA(va), nil
}

func (r *MemoryVARepository) GetVAByInstanceID(ctx context.Context, instanceID string) (*domain.VerbalAutopsy, error) {
	if instanceID == "" {
		return nil, domain.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, va := range r.vas {
		if va.InstanceID == instanceID && !va.DeletedAt.Valid {
			return copyVA(va), nil
		}
	}
	return nil, domain.ErrNotFound
}

func matchesQuery(va *domain.VerbalAutopsy, q VAQuery) bool {
	if !q.IncludeDeleted && va.DeletedAt.Valid {
		return false
	}
	if q.Scoped {
		found := false
		for _, id := range q.LocationIDs {
			if va.LocationID.Valid && va.LocationID.String == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	// String comparison against the stored Id10023 value, same as the
	// Postgres implementation.
	if q.DeathDateLower != "" && strings.Compare(va.DeathDate(), q.DeathDateLower) < 0 {
		return false
	}
	if q.DeathDateUpper != "" && strings.Compare(va.DeathDate(), q.DeathDateUpper) > 0 {
		return false
	}
	if q.Duplicate != nil && va.Duplicate != *q.Duplicate {
		return false
	}
	return true
}

func (r *MemoryVARepository) ListVAs(ctx context.Context, q VAQuery) ([]*domain.VerbalAutopsy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.VerbalAutopsy{}
	for _, va := range r.vas {
		if matchesQuery(va, q) {
			out = append(out, copyVA(va))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedBefore(out[j]) })
	return out, nil
}

func (r *MemoryVARepository) CountVAs(ctx context.Context, q VAQuery) (int, error) {
	vas, err := r.ListVAs(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(vas), nil
}

type memoryGroupStore struct {
	repo *MemoryVARepository // caller already holds repo.mu
}

func (g *memoryGroupStore) OldestInGroup(ctx context.Context, hash string, excludeID string) (*domain.VerbalAutopsy, error) {
	if hash == "" {
		return nil, nil
	}
	var oldest *domain.VerbalAutopsy
	for _, va := range g.repo.vas {
		if va.UniqueVAIdentifier != hash || va.VAID == excludeID || va.DeletedAt.Valid {
			continue
		}
		if oldest == nil || va.CreatedBefore(oldest) {
			oldest = va
		}
	}
	if oldest == nil {
		return nil, nil
	}
	return copyVA(oldest), nil
}

func (g *memoryGroupStore) SetDuplicate(ctx context.Context, vaID string, duplicate bool) error {
	va, ok := g.repo.vas[vaID]
	if !ok {
		return domain.ErrNotFound
	}
	va.Duplicate = duplicate
	va.UpdatedAt.Valid = true
	va.UpdatedAt.Time = time.Now().UTC()
	return nil
}

func (r *MemoryVARepository) SaveVA(ctx context.Context, va *domain.VerbalAutopsy, lockHashes []string, reconcile ReconcileFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var previous *domain.VerbalAutopsy
	if stored, ok := r.vas[va.VAID]; ok {
		previous = copyVA(stored)
	}

	// Same staleness contract as the Postgres implementation.
	if previous != nil && previous.UniqueVAIdentifier != "" && !containsHash(lockHashes, previous.UniqueVAIdentifier) {
		return domain.ErrReconciliationRace
	}

	if err := reconcile(ctx, &memoryGroupStore{repo: r}, previous); err != nil {
		return err
	}

	if previous == nil && va.CreatedAt.IsZero() {
		va.CreatedAt = time.Now().UTC()
	}
	va.UpdatedAt.Valid = true
	va.UpdatedAt.Time = time.Now().UTC()
	r.vas[va.VAID] = copyVA(va)
	return nil
}

func (r *MemoryVARepository) RegenerateHashes(ctx context.Context, fields []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	for _, va := range r.vas {
		if va.DeletedAt.Valid {
			continue
		}
		if hash := identity.ComputeHash(va, fields); hash != va.UniqueVAIdentifier {
			va.UniqueVAIdentifier = hash
			changed++
		}
	}
	return changed, nil
}

func (r *MemoryVARepository) MarkDuplicates(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	groups := map[string][]*domain.VerbalAutopsy{}
	for _, va := range r.vas {
		if va.UniqueVAIdentifier == "" || va.DeletedAt.Valid {
			continue
		}
		groups[va.UniqueVAIdentifier] = append(groups[va.UniqueVAIdentifier], va)
	}

	changed := 0
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].CreatedBefore(group[j]) })
		for i, va := range group {
			want := i > 0
			if va.Duplicate != want {
				va.Duplicate = want
				changed++
			}
		}
	}
	return changed, nil
}
