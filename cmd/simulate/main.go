package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/logger"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	BookRatio   float64
	BulkRatio   float64
	ReadRatio   float64
	Doctors     int
	Patients    int
	Slots       int
	SlotMinutes int
	LogLevel    string
}

// DataPool is a deliberately small set of participants and slot starts so
// concurrent workers keep racing for the same intervals.
type DataPool struct {
	Doctors  []string
	Patients []string
	Starts   []time.Time
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err == nil && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case err == nil && status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Book      OperationMetrics
	BulkBook  OperationMetrics
	ByDoctor  OperationMetrics
	ByDoctors OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     *zap.Logger
}

func main() {
	cfg := loadConfig()

	log, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := validateConfig(cfg); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	log.Info("simulator starting",
		zap.String("api", cfg.APIBaseURL),
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
		zap.Float64("book_ratio", cfg.BookRatio),
		zap.Float64("bulk_ratio", cfg.BulkRatio),
		zap.Float64("read_ratio", cfg.ReadRatio),
	)

	sim := &Simulator{
		config: cfg,
		pool:   newDataPool(cfg),
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		BookRatio:   getFloat("SIM_BOOK_RATIO", 0.5),
		BulkRatio:   getFloat("SIM_BULK_RATIO", 0.2),
		ReadRatio:   getFloat("SIM_READ_RATIO", 0.3),
		Doctors:     getInt("SIM_DOCTORS", 10),
		Patients:    getInt("SIM_PATIENTS", 200),
		Slots:       getInt("SIM_SLOTS", 40),
		SlotMinutes: getInt("SIM_SLOT_MINUTES", 15),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	total := cfg.BookRatio + cfg.BulkRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookRatio /= total
		cfg.BulkRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Doctors <= 0 || cfg.Patients <= 0 || cfg.Slots <= 0 || cfg.SlotMinutes <= 0 {
		return fmt.Errorf("SIM_DOCTORS, SIM_PATIENTS, SIM_SLOTS and SIM_SLOT_MINUTES must be > 0")
	}
	return nil
}

func newDataPool(cfg SimConfig) *DataPool {
	pool := &DataPool{}
	for i := 0; i < cfg.Doctors; i++ {
		pool.Doctors = append(pool.Doctors, "sim-dr-"+uuid.NewString())
	}
	for i := 0; i < cfg.Patients; i++ {
		pool.Patients = append(pool.Patients, "sim-pt-"+uuid.NewString())
	}

	base := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	for i := 0; i < cfg.Slots; i++ {
		pool.Starts = append(pool.Starts, base.Add(time.Duration(i*cfg.SlotMinutes)*time.Minute))
	}
	return pool
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < s.config.BookRatio:
			s.doBook(ctx, rng)
		case r < s.config.BookRatio+s.config.BulkRatio:
			s.doBulkBook(ctx, rng)
		case rng.Intn(2) == 0:
			s.doByDoctor(ctx, rng)
		default:
			s.doByDoctors(ctx, rng)
		}
	}
}

func (s *Simulator) doBook(ctx context.Context, rng *rand.Rand) {
	start := s.pool.Starts[rng.Intn(len(s.pool.Starts))]
	body := map[string]string{
		"doctorId":  pick(rng, s.pool.Doctors),
		"patientId": pick(rng, s.pool.Patients),
		"startTime": start.Format(time.RFC3339),
		"endTime":   start.Add(time.Duration(s.config.SlotMinutes) * time.Minute).Format(time.RFC3339),
	}
	s.post(ctx, "/appointments/book", body, &s.metrics.Book)
}

func (s *Simulator) doBulkBook(ctx context.Context, rng *rand.Rand) {
	n := 2 + rng.Intn(4)
	patients := make([]string, 0, n)
	for i := 0; i < n; i++ {
		patients = append(patients, pick(rng, s.pool.Patients))
	}

	body := map[string]any{
		"doctorId":     pick(rng, s.pool.Doctors),
		"patientIds":   patients,
		"startTime":    s.pool.Starts[rng.Intn(len(s.pool.Starts))].Format(time.RFC3339),
		"slotDuration": s.config.SlotMinutes,
	}
	s.post(ctx, "/appointments/patients", body, &s.metrics.BulkBook)
}

func (s *Simulator) doByDoctor(ctx context.Context, rng *rand.Rand) {
	s.get(ctx, "/appointments/doctor/"+url.PathEscape(pick(rng, s.pool.Doctors)), &s.metrics.ByDoctor)
}

func (s *Simulator) doByDoctors(ctx context.Context, rng *rand.Rand) {
	ids := []string{pick(rng, s.pool.Doctors), pick(rng, s.pool.Doctors), pick(rng, s.pool.Doctors)}
	s.get(ctx, "/appointments/doctors?doctorIds="+url.QueryEscape(strings.Join(ids, ",")), &s.metrics.ByDoctors)
}

func (s *Simulator) post(ctx context.Context, path string, body any, om *OperationMetrics) {
	payload, err := json.Marshal(body)
	if err != nil {
		s.log.Error("marshal request", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+path, bytes.NewReader(payload))
	if err != nil {
		s.log.Error("build request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	s.do(req, om)
}

func (s *Simulator) get(ctx context.Context, path string, om *OperationMetrics) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	if err != nil {
		s.log.Error("build request", zap.Error(err))
		return
	}
	s.do(req, om)
}

func (s *Simulator) do(req *http.Request, om *OperationMetrics) {
	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	if req.Context().Err() != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return
	}

	status := 0
	if err == nil {
		status = resp.StatusCode
		resp.Body.Close()
	} else {
		s.log.Debug("request failed", zap.String("url", req.URL.String()), zap.Error(err))
	}
	om.Record(latency, status, err)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Participants: %d doctors, %d patients, %d slot starts\n", s.config.Doctors, s.config.Patients, s.config.Slots)
	fmt.Println()

	printOperationReport("Book", &s.metrics.Book)
	printOperationReport("Bulk book", &s.metrics.BulkBook)
	printOperationReport("List by doctor", &s.metrics.ByDoctor)
	printOperationReport("Group by doctors", &s.metrics.ByDoctors)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
