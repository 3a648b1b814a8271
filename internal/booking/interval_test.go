package booking

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func at(hhmm string) time.Time {
	t, err := time.Parse(time.RFC3339, "2024-01-01T"+hhmm+":00Z")
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                 string
		existStart, existEnd string
		candStart, candEnd   string
		want                 bool
	}{
		{"touching after", "10:00", "11:00", "11:00", "12:00", false},
		{"touching before", "11:00", "12:00", "10:00", "11:00", false},
		{"partial overlap", "10:00", "11:00", "10:30", "11:30", true},
		{"contained", "10:00", "12:00", "10:30", "11:00", true},
		{"containing", "10:30", "11:00", "10:00", "12:00", true},
		{"identical", "10:00", "11:00", "10:00", "11:00", true},
		{"disjoint", "08:00", "09:00", "10:00", "11:00", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(at(tc.existStart), at(tc.existEnd), at(tc.candStart), at(tc.candEnd))
			if got != tc.want {
				t.Fatalf("Overlaps([%s,%s), [%s,%s)) = %v, want %v",
					tc.existStart, tc.existEnd, tc.candStart, tc.candEnd, got, tc.want)
			}
		})
	}
}

func TestNextSlotIsContiguous(t *testing.T) {
	t.Parallel()

	cursor := at("10:00")
	for i := 0; i < 4; i++ {
		start, end := NextSlot(cursor, 10)
		wantStart := at("10:00").Add(time.Duration(i*10) * time.Minute)
		if !start.Equal(wantStart) {
			t.Fatalf("slot %d start = %s, want %s", i, start, wantStart)
		}
		if got := end.Sub(start); got != 10*time.Minute {
			t.Fatalf("slot %d length = %s, want 10m", i, got)
		}
		cursor = end
	}
}

func TestValidateInterval(t *testing.T) {
	t.Parallel()

	if err := ValidateInterval(at("10:00"), at("10:01")); err != nil {
		t.Fatalf("expected valid interval, got %v", err)
	}
	if err := ValidateInterval(at("10:00"), at("10:00")); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for empty interval, got %v", err)
	}
	if err := ValidateInterval(at("11:00"), at("10:00")); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for inverted interval, got %v", err)
	}
}

func TestValidateSlotMinutes(t *testing.T) {
	t.Parallel()

	for _, minutes := range []int{1, 30, MaxSlotMinutes} {
		if err := ValidateSlotMinutes(minutes); err != nil {
			t.Fatalf("ValidateSlotMinutes(%d) = %v, want nil", minutes, err)
		}
	}
	for _, minutes := range []int{0, -5, MaxSlotMinutes + 1, 307445735} {
		if err := ValidateSlotMinutes(minutes); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("ValidateSlotMinutes(%d) = %v, want ErrInvalidInterval", minutes, err)
		}
	}
}

func TestKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{ErrConflict, KindConflict},
		{errors.Join(errors.New("slot 2"), ErrConflict), KindConflict},
		{ErrInvalidInterval, KindInvalidInterval},
		{fmt.Errorf("anchor: %w", ErrInvalidRequest), KindInvalidRequest},
		{storageErr("commit", errors.New("connection reset")), KindStorage},
		{errors.New("boom"), KindInternal},
	}

	for _, tc := range tests {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
