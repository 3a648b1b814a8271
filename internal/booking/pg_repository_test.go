package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapPgError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "exclusion violation",
			err:  &pgconn.PgError{Code: pgExclusionViolation, ConstraintName: "bookings_doctor_no_overlap"},
			want: ErrConflict,
		},
		{
			name: "wrapped exclusion violation",
			err:  fmt.Errorf("batch: %w", &pgconn.PgError{Code: pgExclusionViolation}),
			want: ErrConflict,
		},
		{
			name: "check violation",
			err:  &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "bookings_interval_check"},
			want: ErrInvalidInterval,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapPgError(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("mapPgError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestMapPgErrorPassesThroughOthers(t *testing.T) {
	t.Parallel()

	serialization := &pgconn.PgError{Code: "40001"}
	got := mapPgError(serialization)
	if errors.Is(got, ErrConflict) || errors.Is(got, ErrInvalidInterval) {
		t.Fatalf("serialization failure must not map to a domain error, got %v", got)
	}
	if Kind(storageErr("commit", got)) != KindStorage {
		t.Fatalf("expected serialization failure to classify as storage, got %q", Kind(storageErr("commit", got)))
	}

	plain := errors.New("conn closed")
	if got := mapPgError(plain); got != plain {
		t.Fatalf("expected non-pg error unchanged, got %v", got)
	}
}

func TestPgRepositoryRejectsForeignTx(t *testing.T) {
	t.Parallel()
	mem := NewMemRepository()
	tx, err := mem.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Release()

	repo := NewPgRepository(nil)
	if _, err := repo.CreateBatch(context.Background(), tx, []Draft{slot("doctor1", "patient1", "10:00", "10:30")}); !errors.Is(err, ErrForeignTx) {
		t.Fatalf("expected ErrForeignTx, got %v", err)
	}
}
