package booking

import "time"

// MaxSlotMinutes caps a single bulk slot at one day.
const MaxSlotMinutes = 24 * 60

// Overlaps reports whether the half-open intervals [existingStart, existingEnd)
// and [candidateStart, candidateEnd) intersect. Touching boundaries do not.
func Overlaps(existingStart, existingEnd, candidateStart, candidateEnd time.Time) bool {
	return existingStart.Before(candidateEnd) && existingEnd.After(candidateStart)
}

// NextSlot returns the slot of durationMinutes starting at cursor. Callers
// advance their cursor to the returned end.
func NextSlot(cursor time.Time, durationMinutes int) (time.Time, time.Time) {
	return cursor, cursor.Add(time.Duration(durationMinutes) * time.Minute)
}

// ValidateInterval rejects empty and inverted intervals.
func ValidateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidInterval
	}
	return nil
}

// ValidateSlotMinutes rejects slot lengths outside [1, MaxSlotMinutes].
func ValidateSlotMinutes(minutes int) error {
	if minutes < 1 || minutes > MaxSlotMinutes {
		return ErrInvalidInterval
	}
	return nil
}

// sharesParticipant reports whether two drafts would double-book someone.
func sharesParticipant(a, b Draft) bool {
	return a.DoctorID == b.DoctorID || a.PatientID == b.PatientID
}
