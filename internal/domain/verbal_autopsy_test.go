package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnswerOrUnknown(t *testing.T) {
	va := &VerbalAutopsy{Answers: map[string]string{"Id10017": "Bob", "Id10021": ""}}

	assert.Equal(t, "Bob", va.AnswerOrUnknown("Id10017"))
	// Present-but-empty stands as recorded; only absence maps to unknown.
	assert.Equal(t, "", va.AnswerOrUnknown("Id10021"))
	assert.Equal(t, UnknownValue, va.AnswerOrUnknown("Id10023"))

	var empty VerbalAutopsy
	assert.Equal(t, UnknownValue, empty.AnswerOrUnknown("Id10017"))
}

func TestDeathDate(t *testing.T) {
	va := &VerbalAutopsy{Answers: map[string]string{DeathDateField: "2021-01-05"}}
	assert.Equal(t, "2021-01-05", va.DeathDate())
	assert.Equal(t, "", (&VerbalAutopsy{}).DeathDate())
}

func TestCreatedBefore(t *testing.T) {
	t0 := time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)
	older := &VerbalAutopsy{VAID: "b", CreatedAt: t0}
	newer := &VerbalAutopsy{VAID: "a", CreatedAt: t0.Add(time.Hour)}

	assert.True(t, older.CreatedBefore(newer))
	assert.False(t, newer.CreatedBefore(older))

	// Equal timestamps fall back to the id.
	tied := &VerbalAutopsy{VAID: "a", CreatedAt: t0}
	assert.True(t, tied.CreatedBefore(older))
	assert.False(t, older.CreatedBefore(tied))
}
