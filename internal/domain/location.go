package domain

import (
	"database/sql"
	"strings"
)

// Location types, country down to facility. Facilities are always leaves.
const (
	LocationTypeCountry  = "country"
	LocationTypeProvince = "province"
	LocationTypeDistrict = "district"
	LocationTypeFacility = "facility"
)

// PathStepLen is the width of one materialized-path segment. Each tree level
// appends one fixed-width base-36 segment, so descendant lookup is a single
// prefix range scan and depth is len(path)/PathStepLen.
const PathStepLen = 4

// PathAlphabet orders sibling segments. Fixed: changing it would reorder
// every persisted path.
const PathAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Location is a node in the administrative hierarchy (locations table).
// The path column is globally unique and encodes the ancestor chain.
type Location struct {
	LocationID   string       `db:"location_id"`
	Name         string       `db:"name"`
	LocationType string       `db:"location_type"`
	IsActive     bool         `db:"is_active"`
	Path         string       `db:"path"`
	CreatedAt    sql.NullTime `db:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
}

// ValidLocationType reports whether t is a known node kind.
func ValidLocationType(t string) bool {
	switch t {
	case LocationTypeCountry, LocationTypeProvince, LocationTypeDistrict, LocationTypeFacility:
		return true
	}
	return false
}

// Depth is 1 for roots.
func (l *Location) Depth() int {
	return len(l.Path) / PathStepLen
}

// ParentPath returns the path of the parent node, or "" for roots.
func (l *Location) ParentPath() string {
	if len(l.Path) <= PathStepLen {
		return ""
	}
	return l.Path[:len(l.Path)-PathStepLen]
}

// AncestorPaths returns the paths of all strict ancestors, root first.
func (l *Location) AncestorPaths() []string {
	var paths []string
	for end := PathStepLen; end < len(l.Path); end += PathStepLen {
		paths = append(paths, l.Path[:end])
	}
	return paths
}

// IsDescendantOf reports whether l sits strictly below other.
func (l *Location) IsDescendantOf(other *Location) bool {
	return len(l.Path) > len(other.Path) && strings.HasPrefix(l.Path, other.Path)
}

// NextPathSegment increments a fixed-width base-36 segment ("0000" -> "0001",
// "000Z" -> "0010"). ok is false when the segment space under one parent is
// exhausted.
func NextPathSegment(segment string) (string, bool) {
	if segment == "" {
		return FirstPathSegment(), true
	}
	b := []byte(segment)
	for i := len(b) - 1; i >= 0; i-- {
		idx := strings.IndexByte(PathAlphabet, b[i])
		if idx < 0 {
			return "", false
		}
		if idx < len(PathAlphabet)-1 {
			b[i] = PathAlphabet[idx+1]
			return string(b), true
		}
		b[i] = PathAlphabet[0]
	}
	return "", false
}

// FirstPathSegment is the segment assigned to the first child of a parent ("0001").
func FirstPathSegment() string {
	return strings.Repeat(string(PathAlphabet[0]), PathStepLen-1) + string(PathAlphabet[1])
}
