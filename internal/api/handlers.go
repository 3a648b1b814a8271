package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-booking/internal/booking"
)

type appointmentHandler struct {
	responder
	svc         *booking.Service
	query       *booking.QueryService
	maxBulkSize int
}

func (h *appointmentHandler) book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	draft, err := req.Draft()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	created, err := h.svc.Book(r.Context(), draft)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, BookingResponse{
		Message:  h.message(r, keyAppointmentBooked),
		Bookings: []booking.Booking{created},
	})
}

// bookPatients books one doctor with a list of patients.
func (h *appointmentHandler) bookPatients(w http.ResponseWriter, r *http.Request) {
	var req DoctorBulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	bulk, err := req.BulkRequest(h.maxBulkSize)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.bookBulk(w, r, bulk)
}

// bookDoctors books one patient with a list of doctors.
func (h *appointmentHandler) bookDoctors(w http.ResponseWriter, r *http.Request) {
	var req PatientBulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	bulk, err := req.BulkRequest(h.maxBulkSize)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.bookBulk(w, r, bulk)
}

func (h *appointmentHandler) bookBulk(w http.ResponseWriter, r *http.Request, bulk booking.BulkRequest) {
	created, err := h.svc.BookBulk(r.Context(), bulk)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, BookingResponse{
		Message:  h.message(r, keyAppointmentBooked),
		Bookings: created,
	})
}

func (h *appointmentHandler) byDoctor(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.query.ByPrimary(r.Context(), chi.URLParam(r, "doctorId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *appointmentHandler) byPatient(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.query.ByCounterpart(r.Context(), chi.URLParam(r, "patientId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// byDoctors accepts doctorIds repeated, comma separated, or both.
func (h *appointmentHandler) byDoctors(w http.ResponseWriter, r *http.Request) {
	ids := queryList(r, "doctorIds")
	if len(ids) == 0 {
		h.writeError(w, r, http.StatusBadRequest, keyNoDoctorIDs)
		return
	}

	groups, err := h.query.ByPrimaries(r.Context(), ids...)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func queryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
