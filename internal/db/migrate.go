package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// schema is applied in order on startup. Every statement is idempotent.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id          BIGSERIAL PRIMARY KEY,
		doctor_id   TEXT        NOT NULL,
		patient_id  TEXT        NOT NULL,
		start_time  TIMESTAMPTZ NOT NULL,
		end_time    TIMESTAMPTZ NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT bookings_interval_check CHECK (start_time < end_time)
	)`,

	// A doctor or a patient can never hold two overlapping [start, end) ranges.
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_doctor_no_overlap') THEN
			ALTER TABLE bookings ADD CONSTRAINT bookings_doctor_no_overlap
				EXCLUDE USING gist (doctor_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_patient_no_overlap') THEN
			ALTER TABLE bookings ADD CONSTRAINT bookings_patient_no_overlap
				EXCLUDE USING gist (patient_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&);
		END IF;
	END
	$$`,

	`CREATE INDEX IF NOT EXISTS idx_bookings_doctor_start ON bookings (doctor_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_patient_start ON bookings (patient_id, start_time)`,
}

// Migrate creates the bookings table and its overlap constraints.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	log.Info("schema up to date", zap.Int("statements", len(schema)))
	return nil
}
