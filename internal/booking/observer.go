package booking

// Booking paths reported to an Observer.
const (
	PathSingle = "single"
	PathBulk   = "bulk"
)

// Observer receives booking outcomes. The metrics collector implements it.
type Observer interface {
	Committed(path string, bookings int)
	Rejected(path, kind string)
}

type nopObserver struct{}

func (nopObserver) Committed(string, int) {}
func (nopObserver) Rejected(string, string) {}

// NopObserver discards every outcome.
func NopObserver() Observer {
	return nopObserver{}
}
