package domain

import "database/sql"

// User carries the fields this core needs for access scoping (users table).
// Authentication and profile management live elsewhere.
type User struct {
	UserID string         `db:"user_id"`
	Email  string         `db:"email"`
	Name   sql.NullString `db:"name"`

	// LocationRestrictions is the set of location ids the user is limited to.
	// Empty means unrestricted (national) access.
	LocationRestrictions []string

	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

// Unrestricted reports whether the user has national access.
func (u *User) Unrestricted() bool {
	return len(u.LocationRestrictions) == 0
}
