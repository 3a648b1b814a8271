package booking

import (
	"context"
	"errors"
	"testing"
)

func TestMemRepositoryTxVisibility(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemRepository()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Release()

	if _, err := repo.CreateBatch(ctx, tx, []Draft{slot("doctor1", "patient1", "10:00", "10:30")}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	inTx, err := repo.FindOverlapping(ctx, tx, "doctor1", "nobody", at("10:00"), at("11:00"))
	if err != nil {
		t.Fatalf("find in tx: %v", err)
	}
	if len(inTx) != 1 {
		t.Fatalf("expected staged booking visible inside tx, got %d", len(inTx))
	}

	outside, err := repo.FindOverlapping(ctx, nil, "doctor1", "nobody", at("10:00"), at("11:00"))
	if err != nil {
		t.Fatalf("find outside tx: %v", err)
	}
	if len(outside) != 0 {
		t.Fatalf("expected staged booking hidden outside tx, got %d", len(outside))
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := doctorBookings(t, repo, "doctor1"); len(got) != 1 {
		t.Fatalf("expected committed booking, got %d", len(got))
	}
}

func TestMemRepositoryReleaseIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemRepository()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := repo.CreateBatch(ctx, tx, []Draft{slot("doctor1", "patient1", "10:00", "10:30")}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	tx.Release()
	tx.Release()

	if err := tx.Commit(ctx); !errors.Is(err, ErrTxClosed) {
		t.Fatalf("expected ErrTxClosed after release, got %v", err)
	}
	if repo.OpenTransactions() != 0 {
		t.Fatalf("expected no open transactions, got %d", repo.OpenTransactions())
	}
	if got := doctorBookings(t, repo, "doctor1"); len(got) != 0 {
		t.Fatalf("expected released tx to discard staged rows, got %d", len(got))
	}
}

func TestMemRepositoryRejectsOverlapOnWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemRepository()

	if _, err := repo.CreateBatch(ctx, nil, []Draft{slot("doctor1", "patient1", "10:00", "11:00")}); err != nil {
		t.Fatalf("first write: %v", err)
	}

	_, err := repo.CreateBatch(ctx, nil, []Draft{slot("doctor2", "patient1", "10:59", "11:30")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for shared patient, got %v", err)
	}

	_, err = repo.CreateBatch(ctx, nil, []Draft{
		slot("doctor3", "patient3", "12:00", "13:00"),
		slot("doctor3", "patient4", "12:30", "13:30"),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict inside one batch, got %v", err)
	}
	if got := doctorBookings(t, repo, "doctor3"); len(got) != 0 {
		t.Fatalf("expected failed batch to write nothing, got %d", len(got))
	}

	_, err = repo.CreateBatch(ctx, nil, []Draft{slot("doctor4", "patient4", "12:00", "12:00")})
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestMemRepositoryCommitRechecksConcurrentWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemRepository()

	a, _ := repo.BeginTx(ctx)
	defer a.Release()
	b, _ := repo.BeginTx(ctx)
	defer b.Release()

	if _, err := repo.CreateBatch(ctx, a, []Draft{slot("doctor1", "patient1", "10:00", "10:30")}); err != nil {
		t.Fatalf("stage a: %v", err)
	}
	if _, err := repo.CreateBatch(ctx, b, []Draft{slot("doctor1", "patient2", "10:15", "10:45")}); err != nil {
		t.Fatalf("stage b: %v", err)
	}

	if err := a.Commit(ctx); err != nil {
		t.Fatalf("commit a: %v", err)
	}
	if err := b.Commit(ctx); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected second commit to conflict, got %v", err)
	}
	if got := doctorBookings(t, repo, "doctor1"); len(got) != 1 {
		t.Fatalf("expected one committed booking, got %d", len(got))
	}
}

func TestMemRepositoryRejectsForeignTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	other := NewMemRepository()
	tx, _ := other.BeginTx(ctx)
	defer tx.Release()

	repo := NewMemRepository()
	if _, err := repo.CreateBatch(ctx, tx, []Draft{slot("doctor1", "patient1", "10:00", "10:30")}); !errors.Is(err, ErrForeignTx) {
		t.Fatalf("expected ErrForeignTx, got %v", err)
	}
}
