package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"va-core/internal/domain"
	"va-core/internal/identity"
	"va-core/internal/repository"
)

var identityFields = []string{"Id10017", "Id10021", "Id10023"}

func newTestReconciler(t *testing.T, configured []string) *Reconciler {
	t.Helper()
	rec, err := NewReconciler(configured, zap.NewNop())
	require.NoError(t, err)
	return rec
}

func makeVA(id string, created time.Time, answers map[string]string) *domain.VerbalAutopsy {
	copied := make(map[string]string, len(answers))
	for k, v := range answers {
		copied[k] = v
	}
	return &domain.VerbalAutopsy{VAID: id, Answers: copied, CreatedAt: created}
}

// save runs one reconciled save the way RecordService does: lock the groups
// the save may touch, then reconcile inside the repository's save.
func save(t *testing.T, repo *repository.MemoryVARepository, rec *Reconciler, va *domain.VerbalAutopsy) *Result {
	t.Helper()
	lockHashes := []string{identity.ComputeHash(va, rec.Fields())}
	if prev, err := repo.GetVA(context.Background(), va.VAID); err == nil && prev.UniqueVAIdentifier != "" {
		lockHashes = append(lockHashes, prev.UniqueVAIdentifier)
	}
	var res *Result
	err := repo.SaveVA(context.Background(), va, lockHashes,
		func(ctx context.Context, gs repository.GroupStore, prev *domain.VerbalAutopsy) error {
			var rerr error
			res, rerr = rec.Reconcile(ctx, gs, va, prev)
			return rerr
		})
	require.NoError(t, err)
	return res
}

func storedDuplicate(t *testing.T, repo *repository.MemoryVARepository, id string) bool {
	t.Helper()
	va, err := repo.GetVA(context.Background(), id)
	require.NoError(t, err)
	return va.Duplicate
}

var bobJones = map[string]string{
	"Id10017": "Bob Jones",
	"Id10021": "1/1/60",
	"Id10023": "1/5/21",
}

func TestReconcile_CreateChainOldestWins(t *testing.T) {
	repo := repository.NewMemoryVARepository()
	rec := newTestReconciler(t, identityFields)
	t0 := time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)

	res1 := save(t, repo, rec, makeVA("va-1", t0, bobJones))
	assert.True(t, res1.Reconciled)
	assert.False(t, res1.Duplicate)
	assert.NotEmpty(t, res1.Hash)

	res2 := save(t, repo, rec, makeVA("va-2", t0.Add(time.Hour), bobJones))
	assert.True(t, res2.Duplicate)
	assert.Equal(t, res1.Hash, res2.Hash)

	res3 := save(t, repo, rec, makeVA("va-3", t0.Add(2*time.Hour), bobJones))
	assert.True(t, res3.Duplicate)

	assert.False(t, storedDuplicate(t, repo, "va-1"))
	assert.True(t, storedDuplicate(t, repo, "va-2"))
	assert.True(t, storedDuplicate(t, repo, "va-3"))
}

func TestReconcile_EditPromotesSurvivor(t *testing.T) {
	repo := repository.NewMemoryVARepository()
	rec := newTestReconciler(t, identityFields)
	t0 := time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)

	save(t, repo, rec, makeVA("va-1", t0, bobJones))
	save(t, repo, rec, makeVA("va-2", t0.Add(time.Hour), bobJones))

	// Correcting the canonical record's name moves it to a fresh group;
	// the remaining member takes over as canonical.
	edited := makeVA("va-1", t0, bobJones)
	edited.SetAnswer("Id10017", "Robert Jones")
	res := save(t, repo, rec, edited)

	assert.True(t, res.Reconciled)
	assert.False(t, res.Duplicate)
	assert.Equal(t, "va-2", res.PromotedID)
	assert.False(t, storedDuplicate(t, repo, "va-1"))
	assert.False(t, storedDuplicate(t, repo, "va-2"))
}

func TestReconcile_RejoinDemotesYoungerIncumbent(t *testing.T) {
	repo := repository.NewMemoryVARepository()
	rec := newTestReconciler(t, identityFields)
	t0 := time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)

	save(t, repo, rec, makeVA("va-1", t0, bobJones))
	save(t, repo, rec, makeVA("va-2", t0.Add(time.Hour), bobJones))

	edited := makeVA("va-1", t0, bobJones)
	edited.SetAnswer("Id10017", "Robert Jones")
	save(t, repo, rec, edited)

	// Reverting the edit: va-1 is older than the group's current canonical
	// va-2, so va-2 is demoted again.
	reverted := makeVA("va-1", t0, bobJones)
	res := save(t, repo, rec, reverted)

	assert.False(t, res.Duplicate)
	assert.Equal(t, "va-2", res.DemotedID)
	assert.False(t, storedDuplicate(t, repo, "va-1"))
	assert.True(t, storedDuplicate(t, repo, "va-2"))
}

func TestReconcile_BackdatedJoinDemotesIncumbent(t *testing.T) {
	repo := repository.NewMemoryVARepository()
	rec := newTestReconciler(t, identityFields)
	t0 := time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)

	save(t, repo, rec, makeVA("va-1", t0, bobJones))

	other := map[string]string{"Id10017": "Alice Smith", "Id10021": "2/2/62", "Id10023": "3/7/21"}
	save(t, repo, rec, makeVA("va-0", t0.Add(-48*time.Hour), other))

	// Merge tooling edits the older record to match va-1's identity.
	merged := makeVA("va-0", t0.Add(-48*time.Hour), bobJones)
	res := save(t, repo, rec, merged)

	assert.False(t, res.Duplicate)
	assert.Equal(t, "va-1", res.DemotedID)
	assert.False(t, storedDuplicate(t, repo, "va-0"))
	assert.True(t, storedDuplicate(t, repo, "va-1"))
}

func TestReconcile_NonIdentityEditKeepsState(t *testing.T) {
	repo := repository.NewMemoryVARepository()
	rec := newTestReconciler(t, identityFields)
	t0 := time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)

	save(t, repo, rec, makeVA("va-1", t0, bobJones))
	res2 := save(t, repo, rec, makeVA("va-2", t0.Add(time.Hour), bobJones))

	edited := makeVA("va-2", t0.Add(time.Hour), bobJones)
	edited.SetAnswer("Id10058", "hospital")
	res := save(t, repo, rec, edited)

	assert.False(t, res.Reconciled)
	va2, err := repo.GetVA(context.Background(), "va-2")
	require.NoError(t, err)
	assert.True(t, va2.Duplicate)
	assert.Equal(t, res2.Hash, va2.UniqueVAIdentifier)
	assert.Equal(t, "hospital", va2.Answer("Id10058"))
}

func TestReconcile_SimultaneousCreate(t *testing.T) {
	repo := repository.NewMemoryVARepository()
	rec := newTestReconciler(t, identityFields)
	t0 := time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)

	save(t, repo, rec, makeVA("va-b", t0, bobJones))
	res := save(t, repo, rec, makeVA("va-a", t0, bobJones))

	// Same creation instant: the already-stored member keeps canonical on
	// the save path, the newcomer joins as a duplicate.
	assert.True(t, res.Duplicate)
	assert.False(t, storedDuplicate(t, repo, "va-b"))
}

func TestReconcile_DisabledLeavesRecordsUntouched(t *testing.T) {
	repo := repository.NewMemoryVARepository()
	rec := newTestReconciler(t, nil)
	require.False(t, rec.Enabled())
	t0 := time.Date(2021, 5, 10, 12, 0, 0, 0, time.UTC)

	res1 := save(t, repo, rec, makeVA("va-1", t0, bobJones))
	res2 := save(t, repo, rec, makeVA("va-2", t0.Add(time.Hour), bobJones))

	assert.False(t, res1.Reconciled)
	assert.False(t, res2.Reconciled)
	for _, id := range []string{"va-1", "va-2"} {
		va, err := repo.GetVA(context.Background(), id)
		require.NoError(t, err)
		assert.Empty(t, va.UniqueVAIdentifier)
		assert.False(t, va.Duplicate)
	}
}

func TestNewReconciler_AllInvalidDegradesToDisabled(t *testing.T) {
	rec, err := NewReconciler([]string{"bogus", "also_bogus"}, zap.NewNop())
	require.ErrorIs(t, err, domain.ErrIdentityDisabled)
	require.NotNil(t, rec)
	assert.False(t, rec.Enabled())
}
