package booking

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemRepository is an in-process Repository. Writes are checked against the
// no-overlap invariant the same way the Postgres exclusion constraints are,
// so it can stand in for the database in tests and local runs.
type MemRepository struct {
	mu       sync.RWMutex
	bookings []Booking
	nextID   int64
	openTx   int
}

func NewMemRepository() *MemRepository {
	return &MemRepository{nextID: 1}
}

type memTx struct {
	repo   *MemRepository
	mu     sync.Mutex
	staged []Booking
	done   bool
}

func (r *MemRepository) FindOverlapping(ctx context.Context, tx Tx, primaryID, counterpartID string, start, end time.Time) ([]Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mtx, err := r.ownTx(tx)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Booking
	match := func(b Booking) {
		if b.DoctorID != primaryID && b.PatientID != counterpartID {
			return
		}
		if Overlaps(b.Start, b.End, start, end) {
			result = append(result, b)
		}
	}

	for _, b := range r.bookings {
		match(b)
	}
	if mtx != nil {
		mtx.mu.Lock()
		for _, b := range mtx.staged {
			match(b)
		}
		mtx.mu.Unlock()
	}

	return result, nil
}

func (r *MemRepository) FindBy(ctx context.Context, role Role, ids ...string) ([]Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Booking
	for _, b := range r.bookings {
		key := b.DoctorID
		if role == RolePatient {
			key = b.PatientID
		}
		if _, ok := wanted[key]; ok {
			result = append(result, b)
		}
	}

	slices.SortFunc(result, func(a, b Booking) int { return cmp.Compare(a.ID, b.ID) })
	return result, nil
}

func (r *MemRepository) BeginTx(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.openTx++
	r.mu.Unlock()

	return &memTx{repo: r}, nil
}

func (r *MemRepository) CreateBatch(ctx context.Context, tx Tx, drafts []Draft) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mtx, err := r.ownTx(tx)
	if err != nil {
		return nil, err
	}
	for _, d := range drafts {
		if err := ValidateInterval(d.Start, d.End); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []Booking
	if mtx != nil {
		mtx.mu.Lock()
		defer mtx.mu.Unlock()
		if mtx.done {
			return nil, ErrTxClosed
		}
		pending = mtx.staged
	}

	rows := make([]Booking, 0, len(drafts))
	ids := make([]int64, 0, len(drafts))
	for _, d := range drafts {
		if violates(r.bookings, d) || violates(pending, d) || violates(rows, d) {
			return nil, ErrConflict
		}
		b := d.toBooking(r.nextID)
		r.nextID++
		rows = append(rows, b)
		ids = append(ids, b.ID)
	}

	if mtx != nil {
		mtx.staged = append(mtx.staged, rows...)
	} else {
		r.bookings = append(r.bookings, rows...)
	}
	return ids, nil
}

// OpenTransactions reports transactions that were begun and not yet finished.
func (r *MemRepository) OpenTransactions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.openTx
}

func (r *MemRepository) ownTx(tx Tx) (*memTx, error) {
	if tx == nil {
		return nil, nil
	}
	mtx, ok := tx.(*memTx)
	if !ok || mtx.repo != r {
		return nil, ErrForeignTx
	}
	return mtx, nil
}

func violates(existing []Booking, d Draft) bool {
	for _, b := range existing {
		if (b.DoctorID == d.DoctorID || b.PatientID == d.PatientID) && Overlaps(b.Start, b.End, d.Start, d.End) {
			return true
		}
	}
	return false
}

// Commit re-validates the staged rows against everything committed since they
// were written, then publishes them together.
func (t *memTx) Commit(ctx context.Context) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxClosed
	}
	t.done = true
	t.repo.openTx--

	if err := ctx.Err(); err != nil {
		t.staged = nil
		return err
	}

	for _, b := range t.staged {
		if violates(t.repo.bookings, Draft{DoctorID: b.DoctorID, PatientID: b.PatientID, Start: b.Start, End: b.End}) {
			t.staged = nil
			return ErrConflict
		}
	}

	t.repo.bookings = append(t.repo.bookings, t.staged...)
	t.staged = nil
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxClosed
	}
	t.done = true
	t.repo.openTx--
	t.staged = nil
	return nil
}

func (t *memTx) Release() {
	_ = t.Rollback(context.Background())
}
