package domain

import (
	"database/sql"
	"time"
)

// UnknownValue is the app-wide marker for unknown answers; the instrument
// stores it for unparseable dates and it doubles as the stable stand-in when
// a configured identity field is absent from a record.
const UnknownValue = "dk"

// DeathDateField is the instrument field holding the calculated date of death
// (ISO string or UnknownValue).
const DeathDateField = "Id10023"

// VerbalAutopsy is one survey response (verbal_autopsies table). The survey
// answers are a flat field map, opaque to this core except for the configured
// identity fields and the death-date field.
type VerbalAutopsy struct {
	VAID       string         `db:"va_id"`
	LocationID sql.NullString `db:"location_id"`
	// InstanceID is the external stable submission id used by ingestion to
	// decide create-vs-update before reconciliation runs.
	InstanceID string            `db:"instanceid"`
	Answers    map[string]string `db:"answers"` // JSONB

	// UniqueVAIdentifier is the md5 hex hash of the configured identity
	// fields at the time of the last save; "" when detection is disabled.
	UniqueVAIdentifier string `db:"unique_va_identifier"`
	// Duplicate marks the record as a duplicate of the oldest record sharing
	// its identity hash.
	Duplicate bool `db:"duplicate"`

	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
	DeletedAt sql.NullTime `db:"deleted_at"`
}

// Answer returns the stored answer for an instrument field, or "" when unset.
func (va *VerbalAutopsy) Answer(field string) string {
	if va.Answers == nil {
		return ""
	}
	return va.Answers[field]
}

// AnswerOrUnknown returns the stored answer, or UnknownValue when the field
// is missing entirely. Hash computation must use this so that absent and
// present-but-unknown answers collapse to the same stable string.
func (va *VerbalAutopsy) AnswerOrUnknown(field string) string {
	if va.Answers != nil {
		if v, ok := va.Answers[field]; ok {
			return v
		}
	}
	return UnknownValue
}

// DeathDate returns the stored death-date string (may be UnknownValue or "").
func (va *VerbalAutopsy) DeathDate() string {
	return va.Answer(DeathDateField)
}

// SetAnswer sets one instrument field, allocating the map if needed.
func (va *VerbalAutopsy) SetAnswer(field, value string) {
	if va.Answers == nil {
		va.Answers = map[string]string{}
	}
	va.Answers[field] = value
}

// CreatedBefore orders records by creation time with the primary key as a
// stable tie-break; "oldest wins" decisions in duplicate reconciliation all
// go through this.
func (va *VerbalAutopsy) CreatedBefore(other *VerbalAutopsy) bool {
	if va.CreatedAt.Equal(other.CreatedAt) {
		return va.VAID < other.VAID
	}
	return va.CreatedAt.Before(other.CreatedAt)
}
