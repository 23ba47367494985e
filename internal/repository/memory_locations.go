package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"va-core/internal/domain"
)

// MemoryLocationsRepository backs unit tests and DB-less operation.
type MemoryLocationsRepository struct {
	mu     sync.RWMutex
	byPath map[string]*domain.Location
	byID   map[string]*domain.Location
}

func NewMemoryLocationsRepository() *MemoryLocationsRepository {
	return &MemoryLocationsRepository{
		byPath: map[string]*domain.Location{},
		byID:   map[string]*domain.Location{},
	}
}

func copyLocation(l *domain.Location) *domain.Location {
	out := *l
	return &out
}

func (r *MemoryLocationsRepository) GetLocation(ctx context.Context, locationID string) (*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byID[locationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyLocation(l), nil
}

func (r *MemoryLocationsRepository) FindByName(ctx context.Context, name string) (*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *domain.Location
	for _, l := range r.byPath {
		if l.Name != name {
			continue
		}
		if found == nil || l.Path < found.Path {
			found = l
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return copyLocation(found), nil
}

func (r *MemoryLocationsRepository) list(filter func(*domain.Location) bool) []*domain.Location {
	out := []*domain.Location{}
	for _, l := range r.byPath {
		if filter == nil || filter(l) {
			out = append(out, copyLocation(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (r *MemoryLocationsRepository) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(nil), nil
}

func (r *MemoryLocationsRepository) ListByType(ctx context.Context, locationType string) ([]*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(func(l *domain.Location) bool { return l.LocationType == locationType }), nil
}

func (r *MemoryLocationsRepository) ListByPaths(ctx context.Context, paths []string) ([]*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Location{}
	for _, p := range paths {
		if l, ok := r.byPath[p]; ok {
			out = append(out, copyLocation(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Path) != len(out[j].Path) {
			return len(out[i].Path) < len(out[j].Path)
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

func (r *MemoryLocationsRepository) Descendants(ctx context.Context, path string) ([]*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(func(l *domain.Location) bool {
		return strings.HasPrefix(l.Path, path) && l.Path != path
	}), nil
}

func (r *MemoryLocationsRepository) FirstRoot(ctx context.Context) (*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roots := r.list(func(l *domain.Location) bool { return len(l.Path) == domain.PathStepLen })
	if len(roots) == 0 {
		return nil, domain.ErrNotFound
	}
	return roots[0], nil
}

func (r *MemoryLocationsRepository) AddChild(ctx context.Context, parent *domain.Location, name, locationType string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parentPath := ""
	if parent != nil {
		parentPath = parent.Path
	}

	last := ""
	childLen := len(parentPath) + domain.PathStepLen
	for p := range r.byPath {
		if strings.HasPrefix(p, parentPath) && len(p) == childLen && p > last {
			last = p
		}
	}

	segment := domain.FirstPathSegment()
	if last != "" {
		next, ok := domain.NextPathSegment(last[len(parentPath):])
		if !ok {
			return nil, fmt.Errorf("%w: sibling space exhausted under path %q", domain.ErrStructuralConflict, parentPath)
		}
		segment = next
	}

	path := parentPath + segment
	if _, exists := r.byPath[path]; exists {
		return nil, fmt.Errorf("%w: path %q", domain.ErrStructuralConflict, path)
	}

	now := time.Now().UTC()
	l := &domain.Location{
		LocationID:   uuid.NewString(),
		Name:         name,
		LocationType: locationType,
		IsActive:     true,
		Path:         path,
	}
	l.CreatedAt.Valid = true
	l.CreatedAt.Time = now
	l.UpdatedAt.Valid = true
	l.UpdatedAt.Time = now

	r.byPath[path] = l
	r.byID[l.LocationID] = l
	return copyLocation(l), nil
}
