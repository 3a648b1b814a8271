package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	redisclient "github.com/hackgods/clinic-booking/internal/redis"
)

type Service struct {
	repo    Repository
	checker *ConflictChecker
	locker  redisclient.Locker
	obs     Observer
	log     *zap.Logger
}

// NewService wires the booking orchestrators. locker, obs and log are
// optional; nil disables locking, metrics and logging respectively.
func NewService(repo Repository, locker redisclient.Locker, obs Observer, log *zap.Logger) *Service {
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	if obs == nil {
		obs = NopObserver()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		checker: NewConflictChecker(repo),
		locker:  locker,
		obs:     obs,
		log:     log.Named("booking"),
	}
}

// Book checks one interval for both participants and persists it when clear.
// It runs without an explicit transaction. Concurrent writers that both pass
// the check are settled by the store, which reports the loser as ErrConflict.
func (s *Service) Book(ctx context.Context, d Draft) (Booking, error) {
	if err := ValidateInterval(d.Start, d.End); err != nil {
		return Booking{}, s.reject(PathSingle, err)
	}

	var created Booking

	err := s.withLocks(ctx, lockKeys(d), func(lockCtx context.Context) error {
		conflict, err := s.checker.HasConflict(lockCtx, nil, d.DoctorID, d.PatientID, d.Start, d.End)
		if err != nil {
			return err
		}
		if conflict {
			return fmt.Errorf("doctor %s / patient %s: %w", d.DoctorID, d.PatientID, ErrConflict)
		}

		ids, err := s.repo.CreateBatch(lockCtx, nil, []Draft{d})
		if err != nil {
			return storageErr("create booking", err)
		}
		if len(ids) != 1 {
			return fmt.Errorf("%w: create booking returned %d ids", ErrStorage, len(ids))
		}

		created = d.toBooking(ids[0])
		return nil
	})
	if err != nil {
		return Booking{}, s.reject(PathSingle, err)
	}

	s.obs.Committed(PathSingle, 1)
	s.log.Info("booking created",
		zap.Int64("booking_id", created.ID),
		zap.String("doctor_id", created.DoctorID),
		zap.String("patient_id", created.PatientID),
		zap.Time("start", created.Start),
		zap.Time("end", created.End),
	)

	return created, nil
}

// BookBulk books the anchor participant against every counterpart in request
// order, one contiguous slot each, inside a single transaction. The first
// conflict aborts the whole batch.
func (s *Service) BookBulk(ctx context.Context, req BulkRequest) ([]Booking, error) {
	if !req.Anchor.IsValid() {
		return nil, s.reject(PathBulk, fmt.Errorf("anchor role %q: %w", req.Anchor, ErrInvalidRequest))
	}
	if err := ValidateSlotMinutes(req.SlotMinutes); err != nil {
		return nil, s.reject(PathBulk, fmt.Errorf("slot of %d minutes: %w", req.SlotMinutes, err))
	}
	if len(req.CounterpartIDs) == 0 {
		return []Booking{}, nil
	}

	var created []Booking

	err := s.withLocks(ctx, bulkLockKeys(req), func(lockCtx context.Context) error {
		var err error
		created, err = s.bookBulkTx(lockCtx, req)
		return err
	})
	if err != nil {
		return nil, s.reject(PathBulk, err)
	}

	s.obs.Committed(PathBulk, len(created))
	s.log.Info("bulk booking committed",
		zap.String("anchor_role", string(req.Anchor)),
		zap.String("anchor_id", req.AnchorID),
		zap.Int("bookings", len(created)),
		zap.Time("start", req.Start),
		zap.Int("slot_minutes", req.SlotMinutes),
	)

	return created, nil
}

func (s *Service) bookBulkTx(ctx context.Context, req BulkRequest) ([]Booking, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}
	defer tx.Release()

	staged := make([]Draft, 0, len(req.CounterpartIDs))
	cursor := req.Start

	for i, counterpartID := range req.CounterpartIDs {
		start, end := NextSlot(cursor, req.SlotMinutes)
		d := req.draftFor(counterpartID, start, end)

		conflict, err := s.checker.HasConflict(ctx, tx, d.DoctorID, d.PatientID, start, end)
		if err != nil {
			return nil, s.abort(ctx, tx, err)
		}
		if conflict || conflictsWithStaged(staged, d) {
			return nil, s.abort(ctx, tx, fmt.Errorf("slot %d for %s: %w", i, counterpartID, ErrConflict))
		}

		staged = append(staged, d)
		cursor = end
	}

	ids, err := s.repo.CreateBatch(ctx, tx, staged)
	if err != nil {
		return nil, s.abort(ctx, tx, storageErr("create batch", err))
	}
	if len(ids) != len(staged) {
		return nil, s.abort(ctx, tx, fmt.Errorf("%w: create batch returned %d ids for %d bookings", ErrStorage, len(ids), len(staged)))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit", err)
	}

	created := make([]Booking, len(staged))
	for i, d := range staged {
		created[i] = d.toBooking(ids[i])
	}
	return created, nil
}

// abort rolls tx back and returns cause. Release still runs from the caller's defer.
func (s *Service) abort(ctx context.Context, tx Tx, cause error) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, ErrTxClosed) {
		s.log.Warn("rollback failed", zap.Error(err), zap.NamedError("cause", cause))
	}
	return cause
}

func (s *Service) reject(path string, err error) error {
	kind := Kind(err)
	s.obs.Rejected(path, kind)

	if kind == KindStorage || kind == KindInternal {
		s.log.Error("booking failed", zap.String("path", path), zap.Error(err))
	} else {
		s.log.Debug("booking rejected", zap.String("path", path), zap.String("kind", kind), zap.Error(err))
	}
	return err
}

func conflictsWithStaged(staged []Draft, d Draft) bool {
	for _, prev := range staged {
		if sharesParticipant(prev, d) && Overlaps(prev.Start, prev.End, d.Start, d.End) {
			return true
		}
	}
	return false
}

// storageErr keeps domain errors raised by the store and tags everything else
// as a storage failure.
func storageErr(op string, err error) error {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidInterval) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// withLocks runs fn under the participant locks. When the locks stay busy fn
// runs unlocked and the store's overlap constraints decide the outcome, so a
// busy participant never turns into a rejection on its own.
func (s *Service) withLocks(ctx context.Context, keys []string, fn func(context.Context) error) error {
	err := s.locker.WithParticipantLocks(ctx, keys, fn)
	if !errors.Is(err, redisclient.ErrLockNotAcquired) {
		return err
	}
	s.log.Warn("participant locks busy, relying on storage constraints",
		zap.Strings("participants", keys),
		zap.Error(err),
	)
	return fn(ctx)
}

func lockKey(role Role, id string) string {
	return string(role) + ":" + id
}

func lockKeys(d Draft) []string {
	return []string{lockKey(RoleDoctor, d.DoctorID), lockKey(RolePatient, d.PatientID)}
}

func bulkLockKeys(req BulkRequest) []string {
	counterpart := RolePatient
	if req.Anchor == RolePatient {
		counterpart = RoleDoctor
	}

	keys := make([]string, 0, len(req.CounterpartIDs)+1)
	keys = append(keys, lockKey(req.Anchor, req.AnchorID))
	for _, id := range req.CounterpartIDs {
		keys = append(keys, lockKey(counterpart, id))
	}
	return keys
}
