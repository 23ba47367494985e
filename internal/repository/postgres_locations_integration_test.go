// +build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"va-core/internal/domain"
)

func cleanupTestLocations(t *testing.T, db *sql.DB, pathPrefix string) {
	db.Exec(`DELETE FROM locations WHERE path LIKE $1 || '%'`, pathPrefix)
}

func TestPostgresLocationsRepository_AddChildAndDescendants(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresLocationsRepository(db)
	ctx := context.Background()

	root, err := repo.AddChild(ctx, nil, "Integration Country", domain.LocationTypeCountry)
	if err != nil {
		t.Fatalf("AddChild root failed: %v", err)
	}
	defer cleanupTestLocations(t, db, root.Path)

	if len(root.Path) != domain.PathStepLen {
		t.Fatalf("Expected root path of one segment, got %q", root.Path)
	}

	province, err := repo.AddChild(ctx, root, "Integration Province", domain.LocationTypeProvince)
	if err != nil {
		t.Fatalf("AddChild province failed: %v", err)
	}
	facility, err := repo.AddChild(ctx, province, "Integration Facility", domain.LocationTypeFacility)
	if err != nil {
		t.Fatalf("AddChild facility failed: %v", err)
	}

	desc, err := repo.Descendants(ctx, root.Path)
	if err != nil {
		t.Fatalf("Descendants failed: %v", err)
	}
	if len(desc) != 2 {
		t.Fatalf("Expected 2 descendants, got %d", len(desc))
	}
	if desc[0].LocationID != province.LocationID || desc[1].LocationID != facility.LocationID {
		t.Errorf("Expected path-ordered descendants, got %v then %v", desc[0].Name, desc[1].Name)
	}

	ancestors, err := repo.ListByPaths(ctx, facility.AncestorPaths())
	if err != nil {
		t.Fatalf("ListByPaths failed: %v", err)
	}
	if len(ancestors) != 2 || ancestors[0].LocationID != root.LocationID {
		t.Errorf("Expected root-first ancestor chain, got %v", ancestors)
	}
}

func TestPostgresLocationsRepository_SiblingSegments(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresLocationsRepository(db)
	ctx := context.Background()

	root, err := repo.AddChild(ctx, nil, "Integration Country 2", domain.LocationTypeCountry)
	if err != nil {
		t.Fatalf("AddChild root failed: %v", err)
	}
	defer cleanupTestLocations(t, db, root.Path)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		child, err := repo.AddChild(ctx, root, "Integration Province", domain.LocationTypeProvince)
		if err != nil {
			t.Fatalf("AddChild sibling %d failed: %v", i, err)
		}
		if len(child.Path) != 2*domain.PathStepLen {
			t.Fatalf("Expected two-segment child path, got %q", child.Path)
		}
		if seen[child.Path] {
			t.Fatalf("Duplicate sibling path %q", child.Path)
		}
		seen[child.Path] = true
	}
}

func TestPostgresLocationsRepository_GetLocationNotFound(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresLocationsRepository(db)
	_, err := repo.GetLocation(context.Background(), "00000000-0000-4000-8000-0000000000ff")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
