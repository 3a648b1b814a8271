package booking

import (
	"time"
)

// Role names one side of a booking.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Booking is a committed reservation. ID is assigned by storage.
type Booking struct {
	ID        int64     `json:"id"`
	DoctorID  string    `json:"doctorId"`
	PatientID string    `json:"patientId"`
	Start     time.Time `json:"startTime"`
	End       time.Time `json:"endTime"`
}

// Draft is a booking that has not been persisted yet.
type Draft struct {
	DoctorID  string
	PatientID string
	Start     time.Time
	End       time.Time
}

func (d Draft) toBooking(id int64) Booking {
	return Booking{
		ID:        id,
		DoctorID:  d.DoctorID,
		PatientID: d.PatientID,
		Start:     d.Start,
		End:       d.End,
	}
}

// BulkRequest books one anchor participant against an ordered list of
// counterparts, one contiguous slot each.
type BulkRequest struct {
	Anchor         Role
	AnchorID       string
	CounterpartIDs []string
	Start          time.Time
	SlotMinutes    int
}

// draftFor places the anchor and the counterpart on the right side of the booking.
func (r BulkRequest) draftFor(counterpartID string, start, end time.Time) Draft {
	if r.Anchor == RolePatient {
		return Draft{DoctorID: counterpartID, PatientID: r.AnchorID, Start: start, End: end}
	}
	return Draft{DoctorID: r.AnchorID, PatientID: counterpartID, Start: start, End: end}
}
