package intake

import (
	"encoding/json"
)

// Submission is one event as sent by a collector. Every optional field is a
// pointer so "absent" and "empty" stay distinguishable. Timestamps and IDs are
// kept as text until validation so that malformed values become violations.
type Submission struct {
	Title     string  `json:"title"`
	StartAt   string  `json:"start_at"`
	SourceURL string  `json:"source_url"`
	EndAt     *string `json:"end_at,omitempty"`
	EventDate *string `json:"event_date,omitempty"`

	Description *string `json:"description,omitempty"`

	PriceType *string  `json:"price_type,omitempty"`
	PriceLow  *float64 `json:"price_low,omitempty"`
	PriceHigh *float64 `json:"price_high,omitempty"`

	CategoryID   *string `json:"category_id,omitempty"`
	CategorySlug *string `json:"category_slug,omitempty"`

	LocationID *string          `json:"location_id,omitempty"`
	Location   *LocationPayload `json:"location,omitempty"`

	OrganizerID *string           `json:"organizer_id,omitempty"`
	Organizer   *OrganizerPayload `json:"organizer,omitempty"`

	ImageURL     *string `json:"image_url,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	FlyerURL     *string `json:"flyer_url,omitempty"`

	AgeRestriction *string  `json:"age_restriction,omitempty"`
	Audience       []string `json:"audience,omitempty"`

	RawData json.RawMessage `json:"raw_data,omitempty"`
}

// LocationPayload is an inline location description.
type LocationPayload struct {
	Name       string   `json:"name"`
	Address    *string  `json:"address,omitempty"`
	City       *string  `json:"city,omitempty"`
	State      *string  `json:"state,omitempty"`
	PostalCode *string  `json:"postal_code,omitempty"`
	PlaceID    *string  `json:"place_id,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// OrganizerPayload is an inline organizer description.
type OrganizerPayload struct {
	Name    string  `json:"name"`
	Website *string `json:"website,omitempty"`
	Email   *string `json:"email,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
