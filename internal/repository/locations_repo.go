package repository

import (
	"context"

	"va-core/internal/domain"
)

// LocationsRepository is the persistence surface for the administrative
// hierarchy. Only the location-loading surfaces mutate the tree; everything
// else reads it.
type LocationsRepository interface {
	GetLocation(ctx context.Context, locationID string) (*domain.Location, error)

	// FindByName returns the first node with the given name, ordered by
	// path, or domain.ErrNotFound.
	FindByName(ctx context.Context, name string) (*domain.Location, error)

	// ListLocations returns the whole tree in path order (parents before
	// children).
	ListLocations(ctx context.Context) ([]*domain.Location, error)

	// ListByType returns all nodes of one kind in path order.
	ListByType(ctx context.Context, locationType string) ([]*domain.Location, error)

	// ListByPaths resolves an exact path set (ancestor chains), shortest
	// path first.
	ListByPaths(ctx context.Context, paths []string) ([]*domain.Location, error)

	// Descendants returns every node whose path strictly extends path, at
	// any depth, via a single prefix range scan.
	Descendants(ctx context.Context, path string) ([]*domain.Location, error)

	// FirstRoot returns the root with the lowest path, or domain.ErrNotFound
	// when the tree is empty.
	FirstRoot(ctx context.Context) (*domain.Location, error)

	// AddChild allocates the next free path segment under parent (nil parent
	// creates a root), persists the node and returns it. A path collision
	// surfaces as domain.ErrStructuralConflict.
	AddChild(ctx context.Context, parent *domain.Location, name, locationType string) (*domain.Location, error)
}
