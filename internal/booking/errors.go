package booking

import "errors"

var (
	ErrConflict        = errors.New("participant already has an overlapping booking")
	ErrInvalidInterval = errors.New("start time must be before end time")
	ErrInvalidRequest  = errors.New("invalid booking request")
	ErrStorage         = errors.New("booking storage failure")
)

// Error kinds are stable tokens. The transport layer maps them to status codes
// and looks them up in its message catalog.
const (
	KindConflict        = "errors.conflict"
	KindInvalidInterval = "errors.start_time_before_end_time"
	KindInvalidRequest  = "errors.invalid_request"
	KindStorage         = "errors.storage"
	KindInternal        = "errors.internal"
)

// Kind classifies err into one of the Kind* tokens.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidInterval):
		return KindInvalidInterval
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}
