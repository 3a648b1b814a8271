package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/metrics"
)

type RouterConfig struct {
	Service     *booking.Service
	Query       *booking.QueryService
	Health      *HealthHandler
	Metrics     *metrics.Collector
	Logger      *zap.Logger
	Catalog     *Catalog
	MaxBulkSize int
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = NewCatalog()
	}
	rs := responder{catalog: catalog, log: log.Named("http")}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(LoggingMiddleware(log.Named("http")))
	if cfg.Metrics != nil {
		r.Use(MetricsMiddleware(cfg.Metrics))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		rs.writeError(w, req, http.StatusNotFound, keyNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		rs.writeError(w, req, http.StatusMethodNotAllowed, keyMethodNotAllowed)
	})

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	h := &appointmentHandler{
		responder:   rs,
		svc:         cfg.Service,
		query:       cfg.Query,
		maxBulkSize: cfg.MaxBulkSize,
	}
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/book", h.book)
		r.Post("/patients", h.bookPatients)
		r.Post("/doctors", h.bookDoctors)
		r.Get("/doctors", h.byDoctors)
		r.Get("/doctor/{doctorId}", h.byDoctor)
		r.Get("/patient/{patientId}", h.byPatient)
	})

	return r
}
