package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgExclusionViolation = "23P01"
	pgCheckViolation     = "23514"

	releaseTimeout = 5 * time.Second
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.DoctorID,
		&b.PatientID,
		&b.Start,
		&b.End,
	)
	return b, err
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// mapPgError turns constraint violations into domain errors.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgExclusionViolation:
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrConflict)
	case pgCheckViolation:
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrInvalidInterval)
	default:
		return err
	}
}

func (r *PgRepository) conn(tx Tx) (querier, error) {
	if tx == nil {
		return r.pool, nil
	}
	ptx, ok := tx.(*pgTx)
	if !ok {
		return nil, ErrForeignTx
	}
	return ptx.tx, nil
}

// Interface methods

func (r *PgRepository) FindOverlapping(ctx context.Context, tx Tx, primaryID, counterpartID string, start, end time.Time) ([]Booking, error) {
	q, err := r.conn(tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, doctor_id, patient_id, start_time, end_time
		FROM bookings
		WHERE (doctor_id = $1 OR patient_id = $2)
		  AND start_time < $4
		  AND end_time > $3
		ORDER BY id
	`, primaryID, counterpartID, start, end)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PgRepository) FindBy(ctx context.Context, role Role, ids ...string) ([]Booking, error) {
	var sql string
	switch role {
	case RoleDoctor:
		sql = `
			SELECT id, doctor_id, patient_id, start_time, end_time
			FROM bookings
			WHERE doctor_id = ANY($1)
			ORDER BY id
		`
	case RolePatient:
		sql = `
			SELECT id, doctor_id, patient_id, start_time, end_time
			FROM bookings
			WHERE patient_id = ANY($1)
			ORDER BY id
		`
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	rows, err := r.pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// BeginTx opens a SERIALIZABLE transaction so concurrent batches touching the
// same participants cannot both commit.
func (r *PgRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

func (r *PgRepository) CreateBatch(ctx context.Context, tx Tx, drafts []Draft) ([]int64, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	q, err := r.conn(tx)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for _, d := range drafts {
		batch.Queue(`
			INSERT INTO bookings (doctor_id, patient_id, start_time, end_time)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, d.DoctorID, d.PatientID, d.Start, d.End)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	ids := make([]int64, 0, len(drafts))
	for range drafts {
		var id int64
		if err := br.QueryRow().Scan(&id); err != nil {
			return nil, mapPgError(err)
		}
		ids = append(ids, id)
	}

	if err := br.Close(); err != nil {
		return nil, mapPgError(err)
	}
	return ids, nil
}

type pgTx struct {
	tx   pgx.Tx
	mu   sync.Mutex
	done bool
}

func (t *pgTx) finish() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *pgTx) Commit(ctx context.Context) error {
	if !t.finish() {
		return ErrTxClosed
	}
	if err := t.tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if !t.finish() {
		return ErrTxClosed
	}
	return t.tx.Rollback(ctx)
}

// Release rolls back with its own deadline so a cancelled request context
// still returns the connection to the pool cleanly.
func (t *pgTx) Release() {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	_ = t.Rollback(ctx)
}
