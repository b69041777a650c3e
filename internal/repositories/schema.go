package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"eventsPipeline/internal/utils/logger/sl"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		address TEXT,
		city TEXT,
		state TEXT,
		postal_code TEXT,
		place_id TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		source TEXT NOT NULL DEFAULT 'manual',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS locations_place_id_idx ON locations (place_id) WHERE place_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS organizers (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		website TEXT,
		email TEXT,
		source TEXT NOT NULL DEFAULT 'manual',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS organizers_lower_name_idx ON organizers (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		start_at TIMESTAMPTZ NOT NULL,
		end_at TIMESTAMPTZ,
		event_date DATE NOT NULL,
		source_url TEXT NOT NULL,
		status TEXT NOT NULL,
		source TEXT NOT NULL,
		location_id UUID REFERENCES locations (id),
		organizer_id UUID REFERENCES organizers (id),
		category_id UUID REFERENCES categories (id),
		price_type TEXT NOT NULL,
		price_low NUMERIC,
		price_high NUMERIC,
		age_restriction TEXT,
		audience TEXT[],
		image_url TEXT,
		image_storage_path TEXT,
		image_hosted BOOLEAN NOT NULL DEFAULT FALSE,
		raw_image_url TEXT,
		thumbnail_url TEXT,
		thumbnail_storage_path TEXT,
		thumbnail_hosted BOOLEAN NOT NULL DEFAULT FALSE,
		raw_thumbnail_url TEXT,
		flyer_url TEXT,
		flyer_storage_path TEXT,
		flyer_hosted BOOLEAN NOT NULL DEFAULT FALSE,
		raw_flyer_url TEXT,
		raw_data JSONB,
		deleted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS events_source_url_idx ON events (source_url) WHERE deleted_at IS NULL`,
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	op := "repository.ensureSchema()"
	log := r.log.With(slog.String("op", op))

	// pg_trgm is optional: without it location matching falls back to creating.
	if _, err := r.DB.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS pg_trgm`); err != nil {
		log.Warn("pg_trgm unavailable, location similarity search disabled", sl.Err(err))
	}

	for _, stmt := range schemaStatements {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	var enabled bool
	err := r.DB.GetContext(ctx, &enabled, `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm')`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.similarityEnabled = enabled

	return nil
}
