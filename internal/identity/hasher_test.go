package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"va-core/internal/domain"
)

func newVA(answers map[string]string) *domain.VerbalAutopsy {
	return &domain.VerbalAutopsy{Answers: answers}
}

func TestComputeHash_Deterministic(t *testing.T) {
	fields := []string{"Id10017", "Id10021", "Id10023"}
	a := newVA(map[string]string{
		"Id10017": "Bob Jones",
		"Id10021": "1/1/60",
		"Id10023": "1/5/21",
		"Id10058": "hospital", // not part of the identity key
	})
	b := newVA(map[string]string{
		"Id10017": "Bob Jones",
		"Id10021": "1/1/60",
		"Id10023": "1/5/21",
		"Id10058": "home", // differs, must not affect the hash
	})

	assert.Equal(t, ComputeHash(a, fields), ComputeHash(b, fields))
	assert.Len(t, ComputeHash(a, fields), 32)
}

func TestComputeHash_FieldOrderMatters(t *testing.T) {
	va := newVA(map[string]string{"Id10017": "ab", "Id10018": "c"})
	// "ab"+"c" vs "c"+"ab" concatenate differently
	h1 := ComputeHash(va, []string{"Id10017", "Id10018"})
	h2 := ComputeHash(va, []string{"Id10018", "Id10017"})
	assert.NotEqual(t, h1, h2)
}

func TestComputeHash_MissingFieldStringifiesAsUnknown(t *testing.T) {
	fields := []string{"Id10017", "Id10021"}
	missing := newVA(map[string]string{"Id10017": "Bob"})
	explicit := newVA(map[string]string{"Id10017": "Bob", "Id10021": domain.UnknownValue})

	assert.Equal(t, ComputeHash(explicit, fields), ComputeHash(missing, fields))
}

func TestComputeHash_EmptyFieldsDisabled(t *testing.T) {
	va := newVA(map[string]string{"Id10017": "Bob"})
	assert.Equal(t, "", ComputeHash(va, nil))
	assert.Equal(t, "", ComputeHash(va, []string{}))
}

func TestValidateFields_DropsUnknownNames(t *testing.T) {
	fields, err := ValidateFields([]string{"Id10017", "not_a_question", "Id10023"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"Id10017", "Id10023"}, fields)
}

func TestValidateFields_AllInvalidSurfaces(t *testing.T) {
	_, err := ValidateFields([]string{"bogus1", "bogus2"}, zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrIdentityDisabled)
}

func TestValidateFields_EmptyIsDisabledNotError(t *testing.T) {
	fields, err := ValidateFields(nil, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestAnyFieldChanged(t *testing.T) {
	fields := []string{"Id10017", "Id10021"}
	a := newVA(map[string]string{"Id10017": "Bob", "Id10021": "1/1/60"})
	b := newVA(map[string]string{"Id10017": "Bob", "Id10021": "1/1/60", "Id10058": "home"})
	assert.False(t, AnyFieldChanged(a, b, fields))

	b.SetAnswer("Id10017", "Robert")
	assert.True(t, AnyFieldChanged(a, b, fields))
}
