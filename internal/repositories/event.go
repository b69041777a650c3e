package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/models/repositories"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

const eventColumns = `id, title, slug, description, start_at, end_at, event_date, source_url, status, source,
	location_id, organizer_id, category_id, price_type, price_low, price_high, age_restriction, audience,
	image_url, image_storage_path, image_hosted, raw_image_url,
	thumbnail_url, thumbnail_storage_path, thumbnail_hosted, raw_thumbnail_url,
	flyer_url, flyer_storage_path, flyer_hosted, raw_flyer_url,
	raw_data, deleted_at, created_at, updated_at`

type slotColumns struct {
	url, storagePath, hosted, raw string
}

var slotColumnNames = map[domain.SlotKind]slotColumns{
	domain.SlotHero:      {"image_url", "image_storage_path", "image_hosted", "raw_image_url"},
	domain.SlotThumbnail: {"thumbnail_url", "thumbnail_storage_path", "thumbnail_hosted", "raw_thumbnail_url"},
	domain.SlotFlyer:     {"flyer_url", "flyer_storage_path", "flyer_hosted", "raw_flyer_url"},
}

func (r *Repository) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	op := "repository.CreateEvent()"

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	repoEvent := mapEventToRepo(event)

	insertQuery := `INSERT INTO events (
		id, title, slug, description, start_at, end_at, event_date, source_url, status, source,
		location_id, organizer_id, category_id, price_type, price_low, price_high, age_restriction, audience,
		image_url, image_hosted, thumbnail_url, thumbnail_hosted, flyer_url, flyer_hosted,
		raw_data, created_at, updated_at
	) VALUES (
		:id, :title, :slug, :description, :start_at, :end_at, :event_date, :source_url, :status, :source,
		:location_id, :organizer_id, :category_id, :price_type, :price_low, :price_high, :age_restriction, :audience,
		:image_url, :image_hosted, :thumbnail_url, :thumbnail_hosted, :flyer_url, :flyer_hosted,
		:raw_data, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
	) RETURNING created_at, updated_at`

	rows, err := sqlx.NamedQueryContext(ctx, r.DB, insertQuery, repoEvent)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&event.CreatedAt, &event.UpdatedAt); err != nil {
			return domain.Event{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	return event, rows.Err()
}

// FindEventBySourceURL returns the non-deleted event with exactly this source URL.
func (r *Repository) FindEventBySourceURL(ctx context.Context, sourceURL string) (domain.EventRef, error) {
	op := "repository.FindEventBySourceURL()"

	var row struct {
		ID     uuid.UUID `db:"id"`
		Title  string    `db:"title"`
		Slug   string    `db:"slug"`
		Status string    `db:"status"`
	}
	query := `SELECT id, title, slug, status FROM events
	          WHERE source_url = $1 AND deleted_at IS NULL
	          ORDER BY created_at ASC LIMIT 1`

	err := r.DB.GetContext(ctx, &row, query, sourceURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EventRef{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.EventRef{}, fmt.Errorf("%s: %w", op, err)
	}

	return domain.EventRef{ID: row.ID, Title: row.Title, Slug: row.Slug, Status: domain.EventStatus(row.Status)}, nil
}

func (r *Repository) EventSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM events WHERE slug = $1)`, slug)
	if err != nil {
		return false, fmt.Errorf("repository.EventSlugExists(): %w", err)
	}
	return exists, nil
}

func (r *Repository) FindEventByID(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	var repoEvent repositories.Event
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND deleted_at IS NULL LIMIT 1`

	err := r.DB.GetContext(ctx, &repoEvent, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
		}
		return domain.Event{}, fmt.Errorf("error in FindEventByID(): %w", err)
	}

	return mapEventToDomain(repoEvent), nil
}

// FindEventsByIDs returns the non-deleted events among ids. Missing IDs are skipped.
func (r *Repository) FindEventsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var repoEvents []repositories.Event
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL ORDER BY created_at ASC`

	strIDs := make(pq.StringArray, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	if err := r.DB.SelectContext(ctx, &repoEvents, query, strIDs); err != nil {
		return nil, fmt.Errorf("error in FindEventsByIDs(): %w", err)
	}

	return mapEventsToDomain(repoEvents), nil
}

// ListUnhostedEvents pages through non-deleted events that have at least one
// media slot with a URL and hosted = false.
func (r *Repository) ListUnhostedEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	var repoEvents []repositories.Event
	query := `SELECT ` + eventColumns + ` FROM events
	          WHERE deleted_at IS NULL AND (
	              (COALESCE(image_url, '') <> '' AND NOT image_hosted) OR
	              (COALESCE(thumbnail_url, '') <> '' AND NOT thumbnail_hosted) OR
	              (COALESCE(flyer_url, '') <> '' AND NOT flyer_hosted))
	          ORDER BY created_at ASC, id ASC
	          LIMIT $1 OFFSET $2`

	if err := r.DB.SelectContext(ctx, &repoEvents, query, limit, offset); err != nil {
		return nil, fmt.Errorf("error in ListUnhostedEvents(): %w", err)
	}

	return mapEventsToDomain(repoEvents), nil
}

// MarkSlotHosted moves one media slot to owned storage in a single statement.
// The update only applies while the slot still holds expectedURL and is not hosted;
// otherwise domain.ErrNotFound is returned and nothing changes.
func (r *Repository) MarkSlotHosted(ctx context.Context, eventID uuid.UUID, kind domain.SlotKind, expectedURL string, slot domain.MediaSlot) error {
	op := "repository.MarkSlotHosted()"

	cols, ok := slotColumnNames[kind]
	if !ok {
		return fmt.Errorf("%s: unknown slot kind %q", op, kind)
	}

	query := fmt.Sprintf(`UPDATE events SET %[1]s = $1, %[2]s = $2, %[3]s = TRUE, %[4]s = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND %[1]s = $3 AND NOT %[3]s AND deleted_at IS NULL`,
		cols.url, cols.storagePath, cols.hosted, cols.raw)

	result, err := r.DB.ExecContext(ctx, query, slot.URL, slot.StoragePath, expectedURL, eventID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: event %s slot %s changed since it was read: %w", op, eventID, kind, domain.ErrNotFound)
	}

	return nil
}

func mapEventToRepo(e domain.Event) repositories.Event {
	raw := types.JSONText("null")
	if len(e.RawData) > 0 {
		raw = types.JSONText(e.RawData)
	}
	return repositories.Event{
		BaseModel: repositories.BaseModel{
			ID:        e.ID,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		Title:                e.Title,
		Slug:                 e.Slug,
		Description:          nullString(e.Description),
		StartAt:              e.StartAt,
		EndAt:                nullTime(e.EndAt),
		EventDate:            e.EventDate,
		SourceURL:            e.SourceURL,
		Status:               string(e.Status),
		Source:               string(e.Source),
		LocationID:           nullUUID(e.LocationID),
		OrganizerID:          nullUUID(e.OrganizerID),
		CategoryID:           nullUUID(e.CategoryID),
		PriceType:            string(e.PriceType),
		PriceLow:             nullFloat(e.PriceLow),
		PriceHigh:            nullFloat(e.PriceHigh),
		AgeRestriction:       nullString(e.AgeRestriction),
		Audience:             pq.StringArray(e.Audience),
		ImageURL:             nullString(e.Hero.URL),
		ImageStoragePath:     nullString(e.Hero.StoragePath),
		ImageHosted:          e.Hero.Hosted,
		RawImageURL:          nullString(e.Hero.RawURL),
		ThumbnailURL:         nullString(e.Thumbnail.URL),
		ThumbnailStoragePath: nullString(e.Thumbnail.StoragePath),
		ThumbnailHosted:      e.Thumbnail.Hosted,
		RawThumbnailURL:      nullString(e.Thumbnail.RawURL),
		FlyerURL:             nullString(e.Flyer.URL),
		FlyerStoragePath:     nullString(e.Flyer.StoragePath),
		FlyerHosted:          e.Flyer.Hosted,
		RawFlyerURL:          nullString(e.Flyer.RawURL),
		RawData:              raw,
	}
}

func mapEventToDomain(e repositories.Event) domain.Event {
	var raw json.RawMessage
	if len(e.RawData) > 0 && string(e.RawData) != "null" {
		raw = json.RawMessage(e.RawData)
	}
	return domain.Event{
		ID:             e.ID,
		Title:          e.Title,
		Slug:           e.Slug,
		Description:    e.Description.String,
		StartAt:        e.StartAt,
		EndAt:          timePtr(e.EndAt),
		EventDate:      e.EventDate,
		SourceURL:      e.SourceURL,
		Status:         domain.EventStatus(e.Status),
		Source:         domain.Source(e.Source),
		LocationID:     uuidPtr(e.LocationID),
		OrganizerID:    uuidPtr(e.OrganizerID),
		CategoryID:     uuidPtr(e.CategoryID),
		PriceType:      domain.PriceType(e.PriceType),
		PriceLow:       floatPtr(e.PriceLow),
		PriceHigh:      floatPtr(e.PriceHigh),
		AgeRestriction: e.AgeRestriction.String,
		Audience:       []string(e.Audience),
		Hero: domain.MediaSlot{
			URL:         e.ImageURL.String,
			StoragePath: e.ImageStoragePath.String,
			Hosted:      e.ImageHosted,
			RawURL:      e.RawImageURL.String,
		},
		Thumbnail: domain.MediaSlot{
			URL:         e.ThumbnailURL.String,
			StoragePath: e.ThumbnailStoragePath.String,
			Hosted:      e.ThumbnailHosted,
			RawURL:      e.RawThumbnailURL.String,
		},
		Flyer: domain.MediaSlot{
			URL:         e.FlyerURL.String,
			StoragePath: e.FlyerStoragePath.String,
			Hosted:      e.FlyerHosted,
			RawURL:      e.RawFlyerURL.String,
		},
		RawData:   raw,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func mapEventsToDomain(rows []repositories.Event) []domain.Event {
	result := make([]domain.Event, len(rows))
	for i, e := range rows {
		result[i] = mapEventToDomain(e)
	}
	return result
}
