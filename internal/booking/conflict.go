package booking

import (
	"context"
	"fmt"
	"time"
)

// ConflictChecker answers whether a candidate interval collides with a
// committed booking of either participant.
type ConflictChecker struct {
	repo Repository
}

func NewConflictChecker(repo Repository) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

// HasConflict reads through tx when it is non-nil so bookings written earlier
// in the same transaction are visible.
func (c *ConflictChecker) HasConflict(ctx context.Context, tx Tx, primaryID, counterpartID string, start, end time.Time) (bool, error) {
	candidates, err := c.repo.FindOverlapping(ctx, tx, primaryID, counterpartID, start, end)
	if err != nil {
		return false, fmt.Errorf("%w: find overlapping: %w", ErrStorage, err)
	}

	for _, b := range candidates {
		if b.DoctorID != primaryID && b.PatientID != counterpartID {
			continue
		}
		if Overlaps(b.Start, b.End, start, end) {
			return true, nil
		}
	}
	return false, nil
}
