package api

import (
	"strings"
	"time"

	"github.com/hackgods/clinic-booking/internal/booking"
)

// ValidationError lists the message keys of every field that failed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) add(key string) {
	e.Fields = append(e.Fields, key)
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

type BookRequest struct {
	DoctorID  string `json:"doctorId"`
	PatientID string `json:"patientId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Draft validates the request and converts it for the booking service.
func (r BookRequest) Draft() (booking.Draft, error) {
	verr := &ValidationError{}
	requireID(verr, r.DoctorID, "errors.doctor_id_required")
	requireID(verr, r.PatientID, "errors.patient_id_required")
	start := parseTime(verr, r.StartTime, "errors.start_time_required", "errors.start_time_must_be_date")
	end := parseTime(verr, r.EndTime, "errors.end_time_required", "errors.end_time_must_be_date")

	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		verr.add(booking.KindInvalidInterval)
	}
	if err := verr.orNil(); err != nil {
		return booking.Draft{}, err
	}

	return booking.Draft{
		DoctorID:  strings.TrimSpace(r.DoctorID),
		PatientID: strings.TrimSpace(r.PatientID),
		Start:     start,
		End:       end,
	}, nil
}

// DoctorBulkRequest books one doctor with several patients back to back.
type DoctorBulkRequest struct {
	DoctorID     string   `json:"doctorId"`
	PatientIDs   []string `json:"patientIds"`
	StartTime    string   `json:"startTime"`
	SlotDuration *int     `json:"slotDuration"`
}

func (r DoctorBulkRequest) BulkRequest(maxSize int) (booking.BulkRequest, error) {
	verr := &ValidationError{}
	requireID(verr, r.DoctorID, "errors.doctor_id_required")
	ids := requireIDs(verr, r.PatientIDs, "errors.patient_ids_required", "errors.patient_ids_must_be_string", maxSize)
	start := parseTime(verr, r.StartTime, "errors.start_time_required", "errors.start_time_must_be_date")
	minutes := slotMinutes(verr, r.SlotDuration)
	if err := verr.orNil(); err != nil {
		return booking.BulkRequest{}, err
	}

	return booking.BulkRequest{
		Anchor:         booking.RoleDoctor,
		AnchorID:       strings.TrimSpace(r.DoctorID),
		CounterpartIDs: ids,
		Start:          start,
		SlotMinutes:    minutes,
	}, nil
}

// PatientBulkRequest books one patient with several doctors back to back.
type PatientBulkRequest struct {
	PatientID    string   `json:"patientId"`
	DoctorIDs    []string `json:"doctorIds"`
	StartTime    string   `json:"startTime"`
	SlotDuration *int     `json:"slotDuration"`
}

func (r PatientBulkRequest) BulkRequest(maxSize int) (booking.BulkRequest, error) {
	verr := &ValidationError{}
	requireID(verr, r.PatientID, "errors.patient_id_required")
	ids := requireIDs(verr, r.DoctorIDs, "errors.doctor_ids_required", "errors.doctor_ids_must_be_string", maxSize)
	start := parseTime(verr, r.StartTime, "errors.start_time_required", "errors.start_time_must_be_date")
	minutes := slotMinutes(verr, r.SlotDuration)
	if err := verr.orNil(); err != nil {
		return booking.BulkRequest{}, err
	}

	return booking.BulkRequest{
		Anchor:         booking.RolePatient,
		AnchorID:       strings.TrimSpace(r.PatientID),
		CounterpartIDs: ids,
		Start:          start,
		SlotMinutes:    minutes,
	}, nil
}

type BookingResponse struct {
	Message  string            `json:"message"`
	Bookings []booking.Booking `json:"bookings"`
}

// ErrorResponse keeps the shape clients of the booking API already parse.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	Details    []string `json:"details,omitempty"`
	Path       string   `json:"path"`
	Timestamp  string   `json:"timestamp"`
}

// jsonFieldKeys maps JSON type mismatches to field messages.
var jsonFieldKeys = map[string]string{
	"doctorId":     "errors.doctor_id_must_be_string",
	"patientId":    "errors.patient_id_must_be_string",
	"doctorIds":    "errors.doctor_ids_must_be_array",
	"patientIds":   "errors.patient_ids_must_be_array",
	"startTime":    "errors.start_time_must_be_date",
	"endTime":      "errors.end_time_must_be_date",
	"slotDuration": "errors.slot_duration_must_be_integer",
}

func requireID(verr *ValidationError, id, requiredKey string) {
	if strings.TrimSpace(id) == "" {
		verr.add(requiredKey)
	}
}

func requireIDs(verr *ValidationError, ids []string, requiredKey, elemKey string, maxSize int) []string {
	if len(ids) == 0 {
		verr.add(requiredKey)
		return nil
	}
	if maxSize > 0 && len(ids) > maxSize {
		verr.add(keyBulkTooLarge)
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			verr.add(elemKey)
			return nil
		}
		out = append(out, id)
	}
	return out
}

func parseTime(verr *ValidationError, raw, requiredKey, formatKey string) time.Time {
	if strings.TrimSpace(raw) == "" {
		verr.add(requiredKey)
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		verr.add(formatKey)
		return time.Time{}
	}
	return t
}

func slotMinutes(verr *ValidationError, d *int) int {
	switch {
	case d == nil:
		verr.add("errors.slot_duration_required")
		return 0
	case *d < 1:
		verr.add("errors.slot_duration_min")
		return 0
	case *d > booking.MaxSlotMinutes:
		verr.add("errors.slot_duration_max")
		return 0
	}
	return *d
}
