package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorObservesBookings(t *testing.T) {
	c := NewCollector("clinic", prometheus.NewRegistry())

	c.Committed("bulk", 3)
	c.Committed("single", 1)
	c.Rejected("bulk", "errors.conflict")
	c.Rejected("bulk", "errors.conflict")

	if got := testutil.ToFloat64(c.BookingsCommitted.WithLabelValues("bulk")); got != 3 {
		t.Fatalf("bulk committed = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.BookingsRejected.WithLabelValues("bulk", "errors.conflict")); got != 2 {
		t.Fatalf("bulk conflicts = %v, want 2", got)
	}
}

func TestCollectorHandlerExposesRequests(t *testing.T) {
	c := NewCollector("clinic", prometheus.NewRegistry())
	c.ObserveRequest(http.MethodPost, "/appointments/book", http.StatusCreated, 0.02)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `clinic_http_requests_total{method="POST",route="/appointments/book",status="201"} 1`) {
		t.Fatalf("request counter missing from exposition:\n%s", body)
	}
}
