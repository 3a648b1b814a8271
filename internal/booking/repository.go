package booking

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTxClosed  = errors.New("transaction already closed")
	ErrForeignTx = errors.New("transaction does not belong to this repository")
)

// Tx is a transactional scope handed out by a Repository. Release must be
// safe to call on every exit path; it rolls back when the transaction was
// neither committed nor rolled back.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Release()
}

// Repository is the storage contract of the booking engine. A nil Tx runs
// the call outside any explicit transaction.
type Repository interface {
	// For conflict checks: bookings overlapping [start, end) that belong to
	// primaryID as doctor or counterpartID as patient.
	FindOverlapping(ctx context.Context, tx Tx, primaryID, counterpartID string, start, end time.Time) ([]Booking, error)

	// Read path, ordered by booking ID.
	FindBy(ctx context.Context, role Role, ids ...string) ([]Booking, error)

	BeginTx(ctx context.Context) (Tx, error)

	// CreateBatch persists drafts in order and returns their IDs in the same order.
	CreateBatch(ctx context.Context, tx Tx, drafts []Draft) ([]int64, error)
}
