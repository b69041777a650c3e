package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/models/repositories"

	"github.com/google/uuid"
)

func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (domain.Category, error) {
	return r.findCategory(ctx, "repository.FindCategoryByID()",
		`SELECT id, name, slug, is_active, created_at, updated_at FROM categories WHERE id = $1`, id)
}

func (r *Repository) FindActiveCategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	return r.findCategory(ctx, "repository.FindActiveCategoryBySlug()",
		`SELECT id, name, slug, is_active, created_at, updated_at FROM categories WHERE slug = $1 AND is_active`, slug)
}

func (r *Repository) findCategory(ctx context.Context, op, query string, arg any) (domain.Category, error) {
	var row repositories.Category
	if err := r.DB.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Category{}, fmt.Errorf("%s: %w", op, err)
	}
	return domain.Category{ID: row.ID, Name: row.Name, Slug: row.Slug, IsActive: row.IsActive}, nil
}
