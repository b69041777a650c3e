package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/models/repositories"
	"eventsPipeline/internal/utils/slug"

	"github.com/google/uuid"
)

const locationColumns = `id, name, slug, address, city, state, postal_code, place_id, latitude, longitude,
	source, is_active, created_at, updated_at`

func (r *Repository) FindLocationByID(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	op := "repository.FindLocationByID()"

	var row repositories.Location
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`

	if err := r.DB.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Location{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Location{}, fmt.Errorf("%s: %w", op, err)
	}

	return mapLocationToDomain(row), nil
}

func (r *Repository) FindLocationByPlaceID(ctx context.Context, placeID string) (domain.Location, error) {
	op := "repository.FindLocationByPlaceID()"

	var row repositories.Location
	query := `SELECT ` + locationColumns + ` FROM locations WHERE place_id = $1 ORDER BY is_active DESC, created_at ASC LIMIT 1`

	if err := r.DB.GetContext(ctx, &row, query, placeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Location{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Location{}, fmt.Errorf("%s: %w", op, err)
	}

	return mapLocationToDomain(row), nil
}

// FindSimilarLocation returns the active location whose name is most similar to name
// according to pg_trgm. It returns domain.ErrSimilarityUnsupported when the extension
// is not installed.
func (r *Repository) FindSimilarLocation(ctx context.Context, name string) (domain.LocationMatch, error) {
	op := "repository.FindSimilarLocation()"

	if !r.similarityEnabled {
		return domain.LocationMatch{}, fmt.Errorf("%s: %w", op, domain.ErrSimilarityUnsupported)
	}

	var row repositories.LocationScore
	query := `SELECT ` + locationColumns + `, similarity(name, $1) AS score
	          FROM locations WHERE is_active
	          ORDER BY score DESC, created_at ASC LIMIT 1`

	if err := r.DB.GetContext(ctx, &row, query, name); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return domain.LocationMatch{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case pqCode(err) == pqUndefinedFunction:
			return domain.LocationMatch{}, fmt.Errorf("%s: %w", op, domain.ErrSimilarityUnsupported)
		default:
			return domain.LocationMatch{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	return domain.LocationMatch{Location: mapLocationToDomain(row.Location), Score: row.Score}, nil
}

// CreateLocation inserts a location. A slug clash is retried once with a suffix from the ID.
func (r *Repository) CreateLocation(ctx context.Context, loc domain.Location) (domain.Location, error) {
	op := "repository.CreateLocation()"

	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	if loc.Slug == "" {
		loc.Slug = slug.Make(loc.Name)
	}

	insertQuery := `INSERT INTO locations (
		id, name, slug, address, city, state, postal_code, place_id, latitude, longitude, source, is_active,
		created_at, updated_at
	) VALUES (
		:id, :name, :slug, :address, :city, :state, :postal_code, :place_id, :latitude, :longitude, :source, :is_active,
		CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
	)`

	_, err := r.DB.NamedExecContext(ctx, insertQuery, mapLocationToRepo(loc))
	if err != nil && pqCode(err) == pqUniqueViolation {
		loc.Slug = slug.WithSuffix(loc.Slug, loc.ID.String()[:8])
		_, err = r.DB.NamedExecContext(ctx, insertQuery, mapLocationToRepo(loc))
	}
	if err != nil {
		return domain.Location{}, fmt.Errorf("%s: %w", op, err)
	}

	return loc, nil
}

func mapLocationToRepo(l domain.Location) repositories.Location {
	return repositories.Location{
		BaseModel:  repositories.BaseModel{ID: l.ID},
		Name:       l.Name,
		Slug:       l.Slug,
		Address:    nullString(l.Address),
		City:       nullString(l.City),
		State:      nullString(l.State),
		PostalCode: nullString(l.PostalCode),
		PlaceID:    nullString(l.PlaceID),
		Latitude:   nullFloat(l.Latitude),
		Longitude:  nullFloat(l.Longitude),
		Source:     string(l.Source),
		IsActive:   l.IsActive,
	}
}

func mapLocationToDomain(l repositories.Location) domain.Location {
	return domain.Location{
		ID:         l.ID,
		Name:       l.Name,
		Slug:       l.Slug,
		Address:    l.Address.String,
		City:       l.City.String,
		State:      l.State.String,
		PostalCode: l.PostalCode.String,
		PlaceID:    l.PlaceID.String,
		Latitude:   floatPtr(l.Latitude),
		Longitude:  floatPtr(l.Longitude),
		Source:     domain.Source(l.Source),
		IsActive:   l.IsActive,
	}
}
