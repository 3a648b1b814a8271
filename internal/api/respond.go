package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/booking"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// responder renders localized success and error bodies.
type responder struct {
	catalog *Catalog
	log     *zap.Logger
}

func (rs responder) message(r *http.Request, key string) string {
	return rs.catalog.Translate(rs.catalog.Lang(r.Header.Get("Accept-Language")), key)
}

func (rs responder) writeError(w http.ResponseWriter, r *http.Request, status int, key string, details ...string) {
	lang := rs.catalog.Lang(r.Header.Get("Accept-Language"))

	resp := ErrorResponse{
		StatusCode: status,
		Error:      key,
		Message:    rs.catalog.Translate(lang, key),
		Path:       r.URL.RequestURI(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, d := range details {
		resp.Details = append(resp.Details, rs.catalog.Translate(lang, d))
	}

	writeJSON(w, status, resp)
}

// writeServiceError maps validation and booking errors to a status code.
func (rs responder) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		rs.writeError(w, r, http.StatusBadRequest, keyValidation, verr.Fields...)
		return
	}

	kind := booking.Kind(err)
	switch kind {
	case booking.KindConflict:
		rs.writeError(w, r, http.StatusConflict, kind)
	case booking.KindInvalidInterval, booking.KindInvalidRequest:
		rs.writeError(w, r, http.StatusBadRequest, kind)
	default:
		rs.log.Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		rs.writeError(w, r, http.StatusInternalServerError, kind)
	}
}

// decodeJSON reads a JSON body into dst, turning type mismatches into field errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field, _, _ := strings.Cut(typeErr.Field, ".")
			if key, ok := jsonFieldKeys[field]; ok {
				return &ValidationError{Fields: []string{key}}
			}
		}
		return &ValidationError{Fields: []string{keyInvalidBody}}
	}
	return nil
}
