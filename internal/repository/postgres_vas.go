package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/lib/pq"

	"va-core/internal/domain"
	"va-core/internal/identity"
)

// advisoryNamespace prefixes group-lock keys so va-core locks cannot collide
// with other advisory-lock users of the same database.
const advisoryNamespace = "va_dedup"

type PostgresVARepository struct {
	db *sql.DB
}

func NewPostgresVARepository(db *sql.DB) *PostgresVARepository {
	return &PostgresVARepository{db: db}
}

const vaColumns = `
	va_id::text,
	location_id::text,
	instanceid,
	answers,
	unique_va_identifier,
	duplicate,
	created_at,
	updated_at,
	deleted_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVA(row rowScanner) (*domain.VerbalAutopsy, error) {
	var va domain.VerbalAutopsy
	var answers []byte
	err := row.Scan(
		&va.VAID,
		&va.LocationID,
		&va.InstanceID,
		&answers,
		&va.UniqueVAIdentifier,
		&va.Duplicate,
		&va.CreatedAt,
		&va.UpdatedAt,
		&va.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &va.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers for va %s: %w", va.VAID, err)
		}
	}
	return &va, nil
}

func (r *PostgresVARepository) GetVA(ctx context.Context, vaID string) (*domain.VerbalAutopsy, error) {
	q := `SELECT ` + vaColumns + ` FROM verbal_autopsies WHERE va_id = $1`
	va, err := scanVA(r.db.QueryRowContext(ctx, q, vaID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return va, err
}

func (r *PostgresVARepository) GetVAByInstanceID(ctx context.Context, instanceID string) (*domain.VerbalAutopsy, error) {
	if instanceID == "" {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + vaColumns + ` FROM verbal_autopsies WHERE instanceid = $1 AND deleted_at IS NULL`
	va, err := scanVA(r.db.QueryRowContext(ctx, q, instanceID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return va, err
}

func buildVAWhere(q VAQuery) (string, []any) {
	where := "TRUE"
	args := []any{}
	idx := 1

	if !q.IncludeDeleted {
		where += " AND deleted_at IS NULL"
	}
	if q.Scoped {
		// An empty restricted set matches nothing; pq.Array handles that
		// with ANY('{}') which is never true.
		where += fmt.Sprintf(" AND location_id::text = ANY($%d)", idx)
		args = append(args, pq.Array(q.LocationIDs))
		idx++
	}
	if q.DeathDateLower != "" {
		where += fmt.Sprintf(" AND COALESCE(answers->>'%s', '') >= $%d", domain.DeathDateField, idx)
		args = append(args, q.DeathDateLower)
		idx++
	}
	if q.DeathDateUpper != "" {
		where += fmt.Sprintf(" AND COALESCE(answers->>'%s', '') <= $%d", domain.DeathDateField, idx)
		args = append(args, q.DeathDateUpper)
		idx++
	}
	if q.Duplicate != nil {
		where += fmt.Sprintf(" AND duplicate = $%d", idx)
		args = append(args, *q.Duplicate)
		idx++
	}
	return where, args
}

func (r *PostgresVARepository) ListVAs(ctx context.Context, q VAQuery) ([]*domain.VerbalAutopsy, error) {
	where, args := buildVAWhere(q)
	query := `SELECT ` + vaColumns + ` FROM verbal_autopsies WHERE ` + where + ` ORDER BY created_at, va_id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.VerbalAutopsy{}
	for rows.Next() {
		va, err := scanVA(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, va)
	}
	return out, rows.Err()
}

func (r *PostgresVARepository) CountVAs(ctx context.Context, q VAQuery) (int, error) {
	where, args := buildVAWhere(q)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verbal_autopsies WHERE `+where, args...).Scan(&n)
	return n, err
}

// txGroupStore binds GroupStore to the save transaction; the advisory locks
// taken by SaveVA serialize every access that goes through it.
type txGroupStore struct {
	tx *sql.Tx
}

func (g *txGroupStore) OldestInGroup(ctx context.Context, hash string, excludeID string) (*domain.VerbalAutopsy, error) {
	if hash == "" {
		return nil, nil
	}
	q := `SELECT ` + vaColumns + `
		FROM verbal_autopsies
		WHERE unique_va_identifier = $1 AND va_id <> $2 AND deleted_at IS NULL
		ORDER BY created_at, va_id
		LIMIT 1`
	va, err := scanVA(g.tx.QueryRowContext(ctx, q, hash, excludeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return va, err
}

func (g *txGroupStore) SetDuplicate(ctx context.Context, vaID string, duplicate bool) error {
	_, err := g.tx.ExecContext(ctx,
		`UPDATE verbal_autopsies SET duplicate = $2, updated_at = now() WHERE va_id = $1`,
		vaID, duplicate)
	return err
}

func (r *PostgresVARepository) SaveVA(ctx context.Context, va *domain.VerbalAutopsy, lockHashes []string, reconcile ReconcileFunc) error {
	if va.VAID == "" {
		return fmt.Errorf("va_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the identity groups this save may touch, in sorted key order so
	// two saves crossing between the same pair of groups cannot deadlock.
	for _, key := range advisoryKeys(lockHashes) {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
			return fmt.Errorf("failed to lock identity group: %w", err)
		}
	}

	previous, err := scanVA(tx.QueryRowContext(ctx,
		`SELECT `+vaColumns+` FROM verbal_autopsies WHERE va_id = $1`, va.VAID))
	if err == sql.ErrNoRows {
		previous = nil
	} else if err != nil {
		return err
	}

	// The caller computed lockHashes from a read outside this transaction.
	// If the record's persisted hash moved in between, we hold the wrong
	// locks; fail so the save is retried from scratch.
	if previous != nil && previous.UniqueVAIdentifier != "" && !containsHash(lockHashes, previous.UniqueVAIdentifier) {
		return domain.ErrReconciliationRace
	}

	if err := reconcile(ctx, &txGroupStore{tx: tx}, previous); err != nil {
		return err
	}

	answers, err := json.Marshal(va.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	if previous == nil {
		if va.CreatedAt.IsZero() {
			va.CreatedAt = time.Now().UTC()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO verbal_autopsies
				(va_id, location_id, instanceid, answers, unique_va_identifier, duplicate, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
			va.VAID, va.LocationID, va.InstanceID, answers,
			va.UniqueVAIdentifier, va.Duplicate, va.CreatedAt)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE verbal_autopsies
			SET location_id = $2,
			    instanceid = $3,
			    answers = $4,
			    unique_va_identifier = $5,
			    duplicate = $6,
			    updated_at = now()
			WHERE va_id = $1`,
			va.VAID, va.LocationID, va.InstanceID, answers,
			va.UniqueVAIdentifier, va.Duplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to persist va: %w", err)
	}

	return tx.Commit()
}

func (r *PostgresVARepository) RegenerateHashes(ctx context.Context, fields []string) (int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT va_id::text, answers, unique_va_identifier FROM verbal_autopsies WHERE deleted_at IS NULL`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type update struct {
		vaID string
		hash string
	}
	var updates []update
	for rows.Next() {
		var vaID, current string
		var answers []byte
		if err := rows.Scan(&vaID, &answers, &current); err != nil {
			return 0, err
		}
		va := domain.VerbalAutopsy{VAID: vaID}
		if len(answers) > 0 {
			if err := json.Unmarshal(answers, &va.Answers); err != nil {
				return 0, fmt.Errorf("failed to decode answers for va %s: %w", vaID, err)
			}
		}
		if hash := identity.ComputeHash(&va, fields); hash != current {
			updates = append(updates, update{vaID: vaID, hash: hash})
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, u := range updates {
		if _, err := r.db.ExecContext(ctx,
			`UPDATE verbal_autopsies SET unique_va_identifier = $2, updated_at = now() WHERE va_id = $1`,
			u.vaID, u.hash); err != nil {
			return 0, err
		}
	}
	return len(updates), nil
}

func (r *PostgresVARepository) MarkDuplicates(ctx context.Context) (int, error) {
	// One pass: per non-empty hash group, the earliest row (created_at, then
	// va_id) keeps duplicate = false, every later row gets duplicate = true.
	// Only flips rows whose flag actually changes, so a second run is a
	// no-op.
	res, err := r.db.ExecContext(ctx, `
		UPDATE verbal_autopsies va
		SET duplicate = ranked.rn > 1,
		    updated_at = now()
		FROM (
			SELECT va_id,
			       row_number() OVER (
			           PARTITION BY unique_va_identifier
			           ORDER BY created_at, va_id
			       ) AS rn
			FROM verbal_autopsies
			WHERE unique_va_identifier <> '' AND deleted_at IS NULL
		) ranked
		WHERE va.va_id = ranked.va_id
		  AND va.duplicate IS DISTINCT FROM (ranked.rn > 1)`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// advisoryKeys maps identity hashes to sorted, de-duplicated bigint advisory
// lock keys.
func advisoryKeys(hashes []string) []int64 {
	seen := map[int64]struct{}{}
	keys := make([]int64, 0, len(hashes))
	for _, h := range hashes {
		if h == "" {
			continue
		}
		k := advisoryKey64(advisoryNamespace, h)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func advisoryKey64(namespace, value string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(namespace))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(value))
	return int64(h.Sum64())
}

func containsHash(hashes []string, hash string) bool {
	for _, h := range hashes {
		if h == hash {
			return true
		}
	}
	return false
}

// IsRetryableSaveError reports whether a SaveVA failure is a transient
// lock/serialization conflict worth retrying from scratch.
func IsRetryableSaveError(err error) bool {
	if errors.Is(err, domain.ErrReconciliationRace) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "40001", "40P01", "55P03": // serialization failure, deadlock, lock not available
			return true
		}
	}
	return false
}
