package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/logger"
)

type seedConfig struct {
	Doctors        int
	Patients       int
	Days           int
	PatientsPerDay int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	sc := seedConfig{
		Doctors:        getInt("SEED_DOCTORS", 20),
		Patients:       getInt("SEED_PATIENTS", 500),
		Days:           getInt("SEED_DAYS", 5),
		PatientsPerDay: getInt("SEED_PATIENTS_PER_DAY", 8),
	}
	if sc.PatientsPerDay > cfg.MaxBulkSize {
		sc.PatientsPerDay = cfg.MaxBulkSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var repo booking.Repository
	if cfg.Store == config.StorePostgres {
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool, log); err != nil {
			return err
		}
		repo = booking.NewPgRepository(pool)
	} else {
		repo = booking.NewMemRepository()
	}

	svc := booking.NewService(repo, nil, nil, log)
	return seedSchedules(ctx, svc, sc, log)
}

// seedSchedules books every doctor's working days as back-to-back bulk
// requests. Patients are drawn at random, so some days collide with a
// patient booked elsewhere and are skipped.
func seedSchedules(ctx context.Context, svc *booking.Service, sc seedConfig, log *zap.Logger) error {
	doctors := make([]string, sc.Doctors)
	for i := range doctors {
		doctors[i] = doctorID()
	}
	patients := make([]string, sc.Patients)
	for i := range patients {
		patients[i] = uuid.NewString()
	}

	slotMinutes := []string{"10", "15", "20", "30"}
	firstDay := nextMonday(time.Now().UTC())

	var created, skipped int
	for _, doctor := range doctors {
		minutes, _ := strconv.Atoi(gofakeit.RandomString(slotMinutes))

		for day := 0; day < sc.Days; day++ {
			start := firstDay.AddDate(0, 0, day).Add(time.Duration(gofakeit.Number(8, 10)) * time.Hour)

			bookings, err := svc.BookBulk(ctx, booking.BulkRequest{
				Anchor:         booking.RoleDoctor,
				AnchorID:       doctor,
				CounterpartIDs: pickPatients(patients, sc.PatientsPerDay),
				Start:          start,
				SlotMinutes:    minutes,
			})
			switch {
			case errors.Is(err, booking.ErrConflict):
				skipped++
				continue
			case err != nil:
				return fmt.Errorf("seed %s day %d: %w", doctor, day, err)
			}
			created += len(bookings)
		}

		log.Debug("doctor seeded", zap.String("doctor_id", doctor), zap.Int("slot_minutes", minutes))
	}

	log.Info("seed complete",
		zap.Int("doctors", len(doctors)),
		zap.Int("bookings", created),
		zap.Int("skipped_days", skipped),
	)
	return nil
}

func doctorID() string {
	return "dr-" + strings.ToLower(gofakeit.LastName()) + "-" + uuid.NewString()[:8]
}

func pickPatients(patients []string, n int) []string {
	if n > len(patients) {
		n = len(patients)
	}
	picked := make([]string, 0, n)
	seen := make(map[int]struct{}, n)
	for len(picked) < n {
		i := gofakeit.Number(0, len(patients)-1)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		picked = append(picked, patients[i])
	}
	return picked
}

func nextMonday(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Monday {
			return day
		}
	}
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
