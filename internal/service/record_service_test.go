package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"va-core/internal/dedup"
	"va-core/internal/domain"
	"va-core/internal/identity"
	"va-core/internal/repository"
)

var identityFields = []string{"Id10017", "Id10021", "Id10023"}

func newRecordFixture(t *testing.T, configured []string) (*RecordService, *repository.MemoryVARepository) {
	t.Helper()
	vaRepo := repository.NewMemoryVARepository()
	rec, err := dedup.NewReconciler(configured, zap.NewNop())
	require.NoError(t, err)
	return NewRecordService(vaRepo, rec, 3, zap.NewNop()), vaRepo
}

func submission(instanceID string, answers map[string]string) *domain.VerbalAutopsy {
	copied := make(map[string]string, len(answers))
	for k, v := range answers {
		copied[k] = v
	}
	return &domain.VerbalAutopsy{InstanceID: instanceID, Answers: copied}
}

var bobJones = map[string]string{
	"Id10017": "Bob Jones",
	"Id10021": "1/1/60",
	"Id10023": "1/5/21",
}

func TestSaveRecord_CreateAssignsID(t *testing.T) {
	svc, _ := newRecordFixture(t, identityFields)

	res, err := svc.SaveRecord(context.Background(), submission("uuid:inst-1", bobJones))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEmpty(t, res.VA.VAID)
	assert.True(t, res.Reconciliation.Reconciled)
	assert.False(t, res.VA.Duplicate)
	assert.False(t, res.VA.CreatedAt.IsZero())
}

func TestSaveRecord_InstanceIDKeysUpdates(t *testing.T) {
	svc, vaRepo := newRecordFixture(t, identityFields)

	first, err := svc.SaveRecord(context.Background(), submission("uuid:inst-1", bobJones))
	require.NoError(t, err)

	// A resubmission under the same external id is an edit, not a new
	// record.
	edited := submission("uuid:inst-1", bobJones)
	edited.SetAnswer("Id10058", "hospital")
	second, err := svc.SaveRecord(context.Background(), edited)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.VA.VAID, second.VA.VAID)
	n, err := vaRepo.CountVAs(context.Background(), repository.VAQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveRecord_PartialUpdateKeepsStoredAnswers(t *testing.T) {
	svc, vaRepo := newRecordFixture(t, identityFields)

	first, err := svc.SaveRecord(context.Background(), submission("uuid:inst-1", bobJones))
	require.NoError(t, err)

	// A partial update carrying only a non-identity field must not clear
	// the stored identity answers or move the record's identity group.
	partial := submission("uuid:inst-1", map[string]string{"Id10058": "hospital"})
	second, err := svc.SaveRecord(context.Background(), partial)
	require.NoError(t, err)

	assert.False(t, second.Reconciliation.Reconciled)
	assert.Equal(t, first.VA.UniqueVAIdentifier, second.VA.UniqueVAIdentifier)

	stored, err := vaRepo.GetVA(context.Background(), first.VA.VAID)
	require.NoError(t, err)
	assert.Equal(t, "Bob Jones", stored.Answers["Id10017"])
	assert.Equal(t, "1/1/60", stored.Answers["Id10021"])
	assert.Equal(t, "hospital", stored.Answers["Id10058"])
	assert.Equal(t, first.VA.UniqueVAIdentifier, stored.UniqueVAIdentifier)
}

func TestSaveRecord_PartialIdentityUpdateRehashesMergedAnswers(t *testing.T) {
	svc, vaRepo := newRecordFixture(t, identityFields)

	first, err := svc.SaveRecord(context.Background(), submission("uuid:inst-1", bobJones))
	require.NoError(t, err)

	// An identity field carried alone still hashes against the merged
	// answer set, not against unknowns for the fields left out.
	partial := submission("uuid:inst-1", map[string]string{"Id10017": "Robert Jones"})
	second, err := svc.SaveRecord(context.Background(), partial)
	require.NoError(t, err)

	assert.True(t, second.Reconciliation.Reconciled)
	assert.NotEqual(t, first.VA.UniqueVAIdentifier, second.VA.UniqueVAIdentifier)

	merged := submission("uuid:other", map[string]string{
		"Id10017": "Robert Jones",
		"Id10021": "1/1/60",
		"Id10023": "1/5/21",
	})
	want := submissionHash(t, merged)
	stored, err := vaRepo.GetVA(context.Background(), first.VA.VAID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.UniqueVAIdentifier)
	assert.Equal(t, "1/5/21", stored.Answers["Id10023"])
}

func submissionHash(t *testing.T, va *domain.VerbalAutopsy) string {
	t.Helper()
	return identity.ComputeHash(va, identityFields)
}

func TestSaveRecord_CreatedAtStickyAcrossEdits(t *testing.T) {
	svc, _ := newRecordFixture(t, identityFields)

	first, err := svc.SaveRecord(context.Background(), submission("uuid:inst-1", bobJones))
	require.NoError(t, err)

	second, err := svc.SaveRecord(context.Background(), submission("uuid:inst-1", bobJones))
	require.NoError(t, err)
	assert.Equal(t, first.VA.CreatedAt, second.VA.CreatedAt)
}

func TestSaveRecord_ExplicitCreatedAtStands(t *testing.T) {
	svc, _ := newRecordFixture(t, identityFields)

	first, err := svc.SaveRecord(context.Background(), submission("uuid:inst-1", bobJones))
	require.NoError(t, err)

	backdated := submission("uuid:inst-1", bobJones)
	backdated.CreatedAt = first.VA.CreatedAt.Add(-72 * time.Hour)
	second, err := svc.SaveRecord(context.Background(), backdated)
	require.NoError(t, err)
	assert.Equal(t, backdated.CreatedAt, second.VA.CreatedAt)
}

func TestSaveRecord_DuplicateChain(t *testing.T) {
	svc, vaRepo := newRecordFixture(t, identityFields)

	first, err := svc.SaveRecord(context.Background(), submission("uuid:inst-1", bobJones))
	require.NoError(t, err)
	second, err := svc.SaveRecord(context.Background(), submission("uuid:inst-2", bobJones))
	require.NoError(t, err)

	assert.False(t, first.VA.Duplicate)
	assert.True(t, second.VA.Duplicate)
	assert.Equal(t, first.VA.UniqueVAIdentifier, second.VA.UniqueVAIdentifier)

	stored, err := vaRepo.GetVA(context.Background(), second.VA.VAID)
	require.NoError(t, err)
	assert.True(t, stored.Duplicate)
}

func TestSaveRecord_DisabledDetection(t *testing.T) {
	svc, _ := newRecordFixture(t, nil)

	first, err := svc.SaveRecord(context.Background(), submission("uuid:inst-1", bobJones))
	require.NoError(t, err)
	second, err := svc.SaveRecord(context.Background(), submission("uuid:inst-2", bobJones))
	require.NoError(t, err)

	assert.False(t, first.Reconciliation.Reconciled)
	assert.Empty(t, second.VA.UniqueVAIdentifier)
	assert.False(t, second.VA.Duplicate)
}

func TestGetRecord_NotFound(t *testing.T) {
	svc, _ := newRecordFixture(t, identityFields)
	_, err := svc.GetRecord(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
