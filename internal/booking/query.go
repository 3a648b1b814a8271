package booking

import (
	"context"
	"fmt"
)

// QueryService is the read side of the engine.
type QueryService struct {
	repo Repository
}

func NewQueryService(repo Repository) *QueryService {
	return &QueryService{repo: repo}
}

// ByPrimary returns every booking of a doctor in storage order.
func (q *QueryService) ByPrimary(ctx context.Context, doctorID string) ([]Booking, error) {
	return q.list(ctx, RoleDoctor, doctorID)
}

// ByCounterpart returns every booking of a patient in storage order.
func (q *QueryService) ByCounterpart(ctx context.Context, patientID string) ([]Booking, error) {
	return q.list(ctx, RolePatient, patientID)
}

// ByPrimaries loads the bookings of several doctors in one read and groups
// them by doctor. Doctors without bookings are not present in the result.
func (q *QueryService) ByPrimaries(ctx context.Context, doctorIDs ...string) (map[string][]Booking, error) {
	return q.grouped(ctx, RoleDoctor, doctorIDs)
}

// ByCounterparts is the patient-side counterpart of ByPrimaries.
func (q *QueryService) ByCounterparts(ctx context.Context, patientIDs ...string) (map[string][]Booking, error) {
	return q.grouped(ctx, RolePatient, patientIDs)
}

func (q *QueryService) list(ctx context.Context, role Role, id string) ([]Booking, error) {
	bookings, err := q.repo.FindBy(ctx, role, id)
	if err != nil {
		return nil, fmt.Errorf("%w: list by %s: %w", ErrStorage, role, err)
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return bookings, nil
}

func (q *QueryService) grouped(ctx context.Context, role Role, ids []string) (map[string][]Booking, error) {
	groups := make(map[string][]Booking)
	if len(ids) == 0 {
		return groups, nil
	}

	bookings, err := q.repo.FindBy(ctx, role, ids...)
	if err != nil {
		return nil, fmt.Errorf("%w: group by %s: %w", ErrStorage, role, err)
	}

	for _, b := range bookings {
		key := b.DoctorID
		if role == RolePatient {
			key = b.PatientID
		}
		groups[key] = append(groups[key], b)
	}
	return groups, nil
}
