package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"va-core/internal/domain"
)

type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id::text, email, name, created_at, updated_at
		FROM users WHERE user_id = $1`, userID).Scan(
		&u.UserID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT location_id::text FROM user_locations WHERE user_id = $1 ORDER BY location_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		u.LocationRestrictions = append(u.LocationRestrictions, id)
	}
	return &u, rows.Err()
}

func (r *PostgresUsersRepository) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	if user.Email == "" {
		return "", fmt.Errorf("email is required")
	}
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())`,
		user.UserID, user.Email, user.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	if len(user.LocationRestrictions) > 0 {
		if err := r.SetLocationRestrictions(ctx, user.UserID, user.LocationRestrictions); err != nil {
			return "", err
		}
	}
	return user.UserID, nil
}

func (r *PostgresUsersRepository) SetLocationRestrictions(ctx context.Context, userID string, locationIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_locations WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if len(locationIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_locations (user_id, location_id)
			SELECT $1, unnest($2::uuid[])`,
			userID, pq.Array(locationIDs)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
