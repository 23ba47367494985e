package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"va-core/internal/domain"
)

// treeLockNamespace serializes sibling path allocation per parent.
const treeLockNamespace = "va_tree"

type PostgresLocationsRepository struct {
	db *sql.DB
}

func NewPostgresLocationsRepository(db *sql.DB) *PostgresLocationsRepository {
	return &PostgresLocationsRepository{db: db}
}

const locationColumns = `
	location_id::text,
	name,
	location_type,
	is_active,
	path,
	created_at,
	updated_at
`

func scanLocation(row rowScanner) (*domain.Location, error) {
	var l domain.Location
	err := row.Scan(
		&l.LocationID,
		&l.Name,
		&l.LocationType,
		&l.IsActive,
		&l.Path,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PostgresLocationsRepository) queryLocations(ctx context.Context, query string, args ...any) ([]*domain.Location, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresLocationsRepository) GetLocation(ctx context.Context, locationID string) (*domain.Location, error) {
	q := `SELECT ` + locationColumns + ` FROM locations WHERE location_id = $1`
	l, err := scanLocation(r.db.QueryRowContext(ctx, q, locationID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return l, err
}

func (r *PostgresLocationsRepository) FindByName(ctx context.Context, name string) (*domain.Location, error) {
	q := `SELECT ` + locationColumns + ` FROM locations WHERE name = $1 ORDER BY path LIMIT 1`
	l, err := scanLocation(r.db.QueryRowContext(ctx, q, name))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return l, err
}

func (r *PostgresLocationsRepository) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	return r.queryLocations(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY path`)
}

func (r *PostgresLocationsRepository) ListByType(ctx context.Context, locationType string) ([]*domain.Location, error) {
	return r.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE location_type = $1 ORDER BY path`, locationType)
}

func (r *PostgresLocationsRepository) ListByPaths(ctx context.Context, paths []string) ([]*domain.Location, error) {
	if len(paths) == 0 {
		return []*domain.Location{}, nil
	}
	return r.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE path = ANY($1) ORDER BY length(path), path`,
		pq.Array(paths))
}

func (r *PostgresLocationsRepository) Descendants(ctx context.Context, path string) ([]*domain.Location, error) {
	// Single range scan over the path index; strict extension only.
	return r.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE path LIKE $1 || '%' AND path <> $1 ORDER BY path`,
		path)
}

func (r *PostgresLocationsRepository) FirstRoot(ctx context.Context) (*domain.Location, error) {
	q := `SELECT ` + locationColumns + ` FROM locations WHERE length(path) = $1 ORDER BY path LIMIT 1`
	l, err := scanLocation(r.db.QueryRowContext(ctx, q, domain.PathStepLen))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return l, err
}

func (r *PostgresLocationsRepository) AddChild(ctx context.Context, parent *domain.Location, name, locationType string) (*domain.Location, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	parentPath := ""
	if parent != nil {
		parentPath = parent.Path
	}

	// Serialize concurrent sibling inserts under the same parent; the unique
	// path index still backstops anything that slips through.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`,
		treeLockKey(parentPath)); err != nil {
		return nil, fmt.Errorf("failed to lock parent path: %w", err)
	}

	var lastPath sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT MAX(path) FROM locations
		WHERE path LIKE $1 || '%' AND length(path) = $2`,
		parentPath, len(parentPath)+domain.PathStepLen).Scan(&lastPath)
	if err != nil {
		return nil, err
	}

	segment := domain.FirstPathSegment()
	if lastPath.Valid {
		last := lastPath.String[len(parentPath):]
		next, ok := domain.NextPathSegment(last)
		if !ok {
			return nil, fmt.Errorf("%w: sibling space exhausted under path %q", domain.ErrStructuralConflict, parentPath)
		}
		segment = next
	}

	l := &domain.Location{
		LocationID:   uuid.NewString(),
		Name:         name,
		LocationType: locationType,
		IsActive:     true,
		Path:         parentPath + segment,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO locations (location_id, name, location_type, is_active, path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())`,
		l.LocationID, l.Name, l.LocationType, l.IsActive, l.Path)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == "23505" {
			return nil, fmt.Errorf("%w: path %q", domain.ErrStructuralConflict, l.Path)
		}
		return nil, fmt.Errorf("failed to insert location: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return l, nil
}

func treeLockKey(parentPath string) int64 {
	return advisoryKey64(treeLockNamespace, parentPath)
}
