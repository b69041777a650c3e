package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/models/repositories"
	"eventsPipeline/internal/utils/slug"

	"github.com/google/uuid"
)

// FindOrganizerByName matches name case-insensitively and exactly.
func (r *Repository) FindOrganizerByName(ctx context.Context, name string) (domain.Organizer, error) {
	op := "repository.FindOrganizerByName()"

	var row repositories.Organizer
	query := `SELECT id, name, slug, website, email, source, created_at, updated_at
	          FROM organizers WHERE LOWER(name) = LOWER($1) ORDER BY created_at ASC LIMIT 1`

	if err := r.DB.GetContext(ctx, &row, query, strings.TrimSpace(name)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Organizer{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Organizer{}, fmt.Errorf("%s: %w", op, err)
	}

	return mapOrganizerToDomain(row), nil
}

func (r *Repository) FindOrganizerByID(ctx context.Context, id uuid.UUID) (domain.Organizer, error) {
	op := "repository.FindOrganizerByID()"

	var row repositories.Organizer
	query := `SELECT id, name, slug, website, email, source, created_at, updated_at
	          FROM organizers WHERE id = $1`

	if err := r.DB.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Organizer{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Organizer{}, fmt.Errorf("%s: %w", op, err)
	}

	return mapOrganizerToDomain(row), nil
}

func (r *Repository) CreateOrganizer(ctx context.Context, org domain.Organizer) (domain.Organizer, error) {
	op := "repository.CreateOrganizer()"

	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	if org.Slug == "" {
		org.Slug = slug.Make(org.Name)
	}

	insertQuery := `INSERT INTO organizers (id, name, slug, website, email, source, created_at, updated_at)
	                VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`

	exec := func() error {
		_, err := r.DB.ExecContext(ctx, insertQuery,
			org.ID, org.Name, org.Slug, nullString(org.Website), nullString(org.Email), string(org.Source))
		return err
	}

	err := exec()
	if err != nil && pqCode(err) == pqUniqueViolation {
		org.Slug = slug.WithSuffix(org.Slug, org.ID.String()[:8])
		err = exec()
	}
	if err != nil {
		return domain.Organizer{}, fmt.Errorf("%s: %w", op, err)
	}

	return org, nil
}

func mapOrganizerToDomain(row repositories.Organizer) domain.Organizer {
	return domain.Organizer{
		ID:      row.ID,
		Name:    row.Name,
		Slug:    row.Slug,
		Website: row.Website.String,
		Email:   row.Email.String,
		Source:  domain.Source(row.Source),
	}
}
