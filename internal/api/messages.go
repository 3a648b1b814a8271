package api

import (
	"golang.org/x/text/language"
)

const (
	keyAppointmentBooked = "message.appointment_booked"
	keyValidation        = "errors.validation"
	keyInvalidBody       = "errors.invalid_body"
	keyNoDoctorIDs       = "errors.noDoctorIds"
	keyBulkTooLarge      = "errors.bulk_too_large"
	keyNotFound          = "errors.not_found"
	keyMethodNotAllowed  = "errors.method_not_allowed"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		keyAppointmentBooked: "Appointment booked successfully.",

		"errors.conflict":                   "Appointment already booked for the same timeslot.",
		"errors.start_time_before_end_time": "Start time must be before end time.",
		"errors.storage":                    "The appointment store is unavailable, please try again.",
		"errors.invalid_request":            "The booking request is invalid.",
		"errors.internal":                   "Something went wrong.",

		keyValidation:       "Validation failed.",
		keyInvalidBody:      "Request body must be valid JSON.",
		keyNoDoctorIDs:      "No doctor IDs were provided.",
		keyBulkTooLarge:     "Too many appointments requested at once.",
		keyNotFound:         "Resource not found.",
		keyMethodNotAllowed: "Method not allowed.",

		"errors.doctor_id_required":            "Doctor ID is required.",
		"errors.doctor_id_must_be_string":      "Doctor ID must be a string.",
		"errors.patient_id_required":           "Patient ID is required.",
		"errors.patient_id_must_be_string":     "Patient ID must be a string.",
		"errors.doctor_ids_required":           "At least one doctor ID is required.",
		"errors.doctor_ids_must_be_array":      "Doctor IDs must be an array.",
		"errors.doctor_ids_must_be_string":     "Each doctor ID must be a non-empty string.",
		"errors.patient_ids_required":          "At least one patient ID is required.",
		"errors.patient_ids_must_be_array":     "Patient IDs must be an array.",
		"errors.patient_ids_must_be_string":    "Each patient ID must be a non-empty string.",
		"errors.start_time_required":           "Start time is required.",
		"errors.start_time_must_be_date":       "Start time must be an RFC 3339 date.",
		"errors.end_time_required":             "End time is required.",
		"errors.end_time_must_be_date":         "End time must be an RFC 3339 date.",
		"errors.slot_duration_required":        "Slot duration is required.",
		"errors.slot_duration_must_be_integer": "Slot duration must be an integer number of minutes.",
		"errors.slot_duration_min":             "Slot duration must be at least 1 minute.",
		"errors.slot_duration_max":             "Slot duration must be at most 1440 minutes.",
	},
	language.Spanish: {
		keyAppointmentBooked: "Cita reservada correctamente.",

		"errors.conflict":                   "Ya existe una cita en la misma franja horaria.",
		"errors.start_time_before_end_time": "La hora de inicio debe ser anterior a la hora de fin.",
		"errors.storage":                    "El almacén de citas no está disponible, inténtelo de nuevo.",
		"errors.invalid_request":            "La solicitud de reserva no es válida.",
		"errors.internal":                   "Algo salió mal.",

		keyValidation:       "La validación ha fallado.",
		keyInvalidBody:      "El cuerpo de la petición debe ser JSON válido.",
		keyNoDoctorIDs:      "No se proporcionaron identificadores de médicos.",
		keyBulkTooLarge:     "Se solicitaron demasiadas citas a la vez.",
		keyNotFound:         "Recurso no encontrado.",
		keyMethodNotAllowed: "Método no permitido.",

		"errors.doctor_id_required":            "El identificador del médico es obligatorio.",
		"errors.doctor_id_must_be_string":      "El identificador del médico debe ser texto.",
		"errors.patient_id_required":           "El identificador del paciente es obligatorio.",
		"errors.patient_id_must_be_string":     "El identificador del paciente debe ser texto.",
		"errors.doctor_ids_required":           "Se requiere al menos un médico.",
		"errors.doctor_ids_must_be_array":      "Los médicos deben enviarse como lista.",
		"errors.doctor_ids_must_be_string":     "Cada identificador de médico debe ser texto no vacío.",
		"errors.patient_ids_required":          "Se requiere al menos un paciente.",
		"errors.patient_ids_must_be_array":     "Los pacientes deben enviarse como lista.",
		"errors.patient_ids_must_be_string":    "Cada identificador de paciente debe ser texto no vacío.",
		"errors.start_time_required":           "La hora de inicio es obligatoria.",
		"errors.start_time_must_be_date":       "La hora de inicio debe ser una fecha RFC 3339.",
		"errors.end_time_required":             "La hora de fin es obligatoria.",
		"errors.end_time_must_be_date":         "La hora de fin debe ser una fecha RFC 3339.",
		"errors.slot_duration_required":        "La duración de la franja es obligatoria.",
		"errors.slot_duration_must_be_integer": "La duración de la franja debe ser un número entero de minutos.",
		"errors.slot_duration_min":             "La duración de la franja debe ser de al menos 1 minuto.",
		"errors.slot_duration_max":             "La duración de la franja debe ser como máximo de 1440 minutos.",
	},
}

// Catalog resolves message keys to text in the language the client asked for.
type Catalog struct {
	tags    []language.Tag
	matcher language.Matcher
}

// NewCatalog returns a catalog that falls back to English.
func NewCatalog() *Catalog {
	tags := []language.Tag{language.English, language.Spanish}
	return &Catalog{
		tags:    tags,
		matcher: language.NewMatcher(tags),
	}
}

// Lang picks the best supported language for an Accept-Language header.
func (c *Catalog) Lang(acceptLanguage string) language.Tag {
	requested, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(requested) == 0 {
		return c.tags[0]
	}
	_, idx, _ := c.matcher.Match(requested...)
	return c.tags[idx]
}

// Translate returns the message for key, or the key itself when unknown.
func (c *Catalog) Translate(lang language.Tag, key string) string {
	if msg, ok := messages[lang][key]; ok {
		return msg
	}
	if msg, ok := messages[c.tags[0]][key]; ok {
		return msg
	}
	return key
}
