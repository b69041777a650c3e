package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

type BaseModel struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Event struct {
	BaseModel
	Title                string          `db:"title"`
	Slug                 string          `db:"slug"`
	Description          sql.NullString  `db:"description"`
	StartAt              time.Time       `db:"start_at"`
	EndAt                sql.NullTime    `db:"end_at"`
	EventDate            time.Time       `db:"event_date"`
	SourceURL            string          `db:"source_url"`
	Status               string          `db:"status"`
	Source               string          `db:"source"`
	LocationID           uuid.NullUUID   `db:"location_id"`
	OrganizerID          uuid.NullUUID   `db:"organizer_id"`
	CategoryID           uuid.NullUUID   `db:"category_id"`
	PriceType            string          `db:"price_type"`
	PriceLow             sql.NullFloat64 `db:"price_low"`
	PriceHigh            sql.NullFloat64 `db:"price_high"`
	AgeRestriction       sql.NullString  `db:"age_restriction"`
	Audience             pq.StringArray  `db:"audience"`
	ImageURL             sql.NullString  `db:"image_url"`
	ImageStoragePath     sql.NullString  `db:"image_storage_path"`
	ImageHosted          bool            `db:"image_hosted"`
	RawImageURL          sql.NullString  `db:"raw_image_url"`
	ThumbnailURL         sql.NullString  `db:"thumbnail_url"`
	ThumbnailStoragePath sql.NullString  `db:"thumbnail_storage_path"`
	ThumbnailHosted      bool            `db:"thumbnail_hosted"`
	RawThumbnailURL      sql.NullString  `db:"raw_thumbnail_url"`
	FlyerURL             sql.NullString  `db:"flyer_url"`
	FlyerStoragePath     sql.NullString  `db:"flyer_storage_path"`
	FlyerHosted          bool            `db:"flyer_hosted"`
	RawFlyerURL          sql.NullString  `db:"raw_flyer_url"`
	RawData              types.JSONText  `db:"raw_data"`
	DeletedAt            sql.NullTime    `db:"deleted_at"`
}

type Location struct {
	BaseModel
	Name       string          `db:"name"`
	Slug       string          `db:"slug"`
	Address    sql.NullString  `db:"address"`
	City       sql.NullString  `db:"city"`
	State      sql.NullString  `db:"state"`
	PostalCode sql.NullString  `db:"postal_code"`
	PlaceID    sql.NullString  `db:"place_id"`
	Latitude   sql.NullFloat64 `db:"latitude"`
	Longitude  sql.NullFloat64 `db:"longitude"`
	Source     string          `db:"source"`
	IsActive   bool            `db:"is_active"`
}

// LocationScore is a location row with its similarity score against a search term.
type LocationScore struct {
	Location
	Score float64 `db:"score"`
}

type Organizer struct {
	BaseModel
	Name    string         `db:"name"`
	Slug    string         `db:"slug"`
	Website sql.NullString `db:"website"`
	Email   sql.NullString `db:"email"`
	Source  string         `db:"source"`
}

type Category struct {
	BaseModel
	Name     string `db:"name"`
	Slug     string `db:"slug"`
	IsActive bool   `db:"is_active"`
}
