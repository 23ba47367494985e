package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"va-core/internal/domain"
	"va-core/internal/repository"
	"va-core/internal/store"
)

// facilityDropTerms are stripped before facility-name matching, so "Mercy
// General Hospital" and "Mercy Hospital" resolve to the same facility.
var facilityDropTerms = []string{"general", "central", "teaching"}

// LocationService owns the administrative hierarchy: tree mutation for the
// location-loading surface, ancestor/descendant queries, the Unknown
// sentinel, and facility assignment for ingested records.
type LocationService struct {
	locRepo     repository.LocationsRepository
	kv          store.KV
	unknownName string
	logger      *zap.Logger
}

func NewLocationService(locRepo repository.LocationsRepository, kv store.KV, unknownName string, logger *zap.Logger) *LocationService {
	if unknownName == "" {
		unknownName = "Unknown"
	}
	return &LocationService{locRepo: locRepo, kv: kv, unknownName: unknownName, logger: logger}
}

// AddChildRequest creates one node under ParentID; empty ParentID creates a
// root.
type AddChildRequest struct {
	ParentID     string
	Name         string
	LocationType string
}

func (s *LocationService) AddChild(ctx context.Context, req AddChildRequest) (*domain.Location, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !domain.ValidLocationType(req.LocationType) {
		return nil, fmt.Errorf("invalid location type %q", req.LocationType)
	}

	var parent *domain.Location
	if req.ParentID != "" {
		var err error
		parent, err = s.locRepo.GetLocation(ctx, req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent location: %w", err)
		}
		if parent.LocationType == domain.LocationTypeFacility {
			return nil, fmt.Errorf("facilities are leaves, cannot add %q under facility %q", req.Name, parent.Name)
		}
	}

	l, err := s.locRepo.AddChild(ctx, parent, strings.TrimSpace(req.Name), req.LocationType)
	if err != nil {
		return nil, err
	}

	s.invalidateAncestorScopes(ctx, l)
	s.logger.Info("added location",
		zap.String("location_id", l.LocationID),
		zap.String("name", l.Name),
		zap.String("location_type", l.LocationType),
		zap.String("path", l.Path))
	return l, nil
}

// Descendants returns every node below the given one, at any depth.
func (s *LocationService) Descendants(ctx context.Context, locationID string) ([]*domain.Location, error) {
	l, err := s.locRepo.GetLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return s.locRepo.Descendants(ctx, l.Path)
}

// Ancestors returns the root-to-parent chain, root first.
func (s *LocationService) Ancestors(ctx context.Context, locationID string) ([]*domain.Location, error) {
	l, err := s.locRepo.GetLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return s.locRepo.ListByPaths(ctx, l.AncestorPaths())
}

// ListLocations returns the whole tree in path order, for export tooling.
func (s *LocationService) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	return s.locRepo.ListLocations(ctx)
}

// ResolveOrCreateUnknown returns the sentinel facility anchoring records
// whose true location is unresolvable, creating it on first use: as a root
// when the tree is empty, otherwise under the first root.
func (s *LocationService) ResolveOrCreateUnknown(ctx context.Context) (*domain.Location, error) {
	l, err := s.locRepo.FindByName(ctx, s.unknownName)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	root, err := s.locRepo.FirstRoot(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		root = nil
	} else if err != nil {
		return nil, err
	}

	l, err = s.locRepo.AddChild(ctx, root, s.unknownName, domain.LocationTypeFacility)
	if errors.Is(err, domain.ErrStructuralConflict) {
		// Lost a creation race; the sentinel exists now.
		return s.locRepo.FindByName(ctx, s.unknownName)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("created unknown-location sentinel", zap.String("location_id", l.LocationID))
	return l, nil
}

// AssignFacility resolves a record's facility from its raw location answers
// (first non-empty candidate wins), falling back to the Unknown sentinel.
// The fallback is a data-quality condition, logged for downstream review,
// not an error.
func (s *LocationService) AssignFacility(ctx context.Context, va *domain.VerbalAutopsy, candidates ...string) (*domain.Location, error) {
	raw := ""
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			raw = c
			break
		}
	}

	if raw != "" {
		facilities, err := s.locRepo.ListByType(ctx, domain.LocationTypeFacility)
		if err != nil {
			return nil, err
		}
		want := normalizeFacilityName(raw)
		for _, f := range facilities {
			if normalizeFacilityName(f.Name) == want {
				va.LocationID.Valid = true
				va.LocationID.String = f.LocationID
				return f, nil
			}
		}
	}

	unknown, err := s.ResolveOrCreateUnknown(ctx)
	if err != nil {
		return nil, err
	}
	va.LocationID.Valid = true
	va.LocationID.String = unknown.LocationID
	s.logger.Warn("record location unresolvable, assigned unknown sentinel",
		zap.String("va_id", va.VAID),
		zap.String("raw_location", raw))
	return unknown, nil
}

func normalizeFacilityName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", " ")
	for _, term := range facilityDropTerms {
		n = strings.ReplaceAll(n, " "+term, "")
	}
	return strings.Join(strings.Fields(n), " ")
}

// invalidateAncestorScopes drops cached descendant sets that the new node
// just changed.
func (s *LocationService) invalidateAncestorScopes(ctx context.Context, l *domain.Location) {
	if s.kv == nil {
		return
	}
	ancestors, err := s.locRepo.ListByPaths(ctx, l.AncestorPaths())
	if err != nil {
		s.logger.Warn("failed to resolve ancestors for scope-cache invalidation", zap.Error(err))
		return
	}
	for _, a := range ancestors {
		if err := s.kv.Delete(ctx, scopeCacheKey(a.LocationID)); err != nil {
			s.logger.Warn("failed to invalidate scope cache entry",
				zap.String("location_id", a.LocationID), zap.Error(err))
		}
	}
}
