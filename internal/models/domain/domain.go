package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the review state of an event in the catalog.
type EventStatus string

const (
	EventStatusPendingReview EventStatus = "pending_review"
	EventStatusPublished     EventStatus = "published"
	EventStatusRejected      EventStatus = "rejected"
	EventStatusDraft         EventStatus = "draft"
)

// Source says where a catalog record came from.
type Source string

const (
	SourceManual  Source = "manual"
	SourceScraper Source = "scraper"
	SourceAPI     Source = "api"
	SourceImport  Source = "import"
)

// PriceType is informational pricing metadata.
type PriceType string

const (
	PriceFree       PriceType = "free"
	PriceFixed      PriceType = "fixed"
	PriceRange      PriceType = "range"
	PriceVaries     PriceType = "varies"
	PriceDonation   PriceType = "donation"
	PricePerSession PriceType = "per_session"
)

// ParsePriceType returns the price type for s and false when s is outside the enumeration.
func ParsePriceType(s string) (PriceType, bool) {
	switch p := PriceType(s); p {
	case PriceFree, PriceFixed, PriceRange, PriceVaries, PriceDonation, PricePerSession:
		return p, true
	default:
		return "", false
	}
}

// SlotKind names one of the three media slots of an event.
type SlotKind string

const (
	SlotHero      SlotKind = "hero"
	SlotThumbnail SlotKind = "thumbnail"
	SlotFlyer     SlotKind = "flyer"
)

// SlotKinds lists media slots in display-preference order.
var SlotKinds = []SlotKind{SlotThumbnail, SlotHero, SlotFlyer}

// MediaSlot is a single media reference of an event.
// Hosted is true only when URL points into owned storage and was uploaded by the pipeline.
type MediaSlot struct {
	URL         string
	StoragePath string
	Hosted      bool
	RawURL      string
}

// Empty reports whether the slot carries no URL at all.
func (m MediaSlot) Empty() bool {
	return m.URL == ""
}

// Event is the catalog model of an event.
type Event struct {
	ID             uuid.UUID
	Title          string
	Slug           string
	Description    string
	StartAt        time.Time
	EndAt          *time.Time
	EventDate      time.Time
	SourceURL      string
	Status         EventStatus
	Source         Source
	LocationID     *uuid.UUID
	OrganizerID    *uuid.UUID
	CategoryID     *uuid.UUID
	PriceType      PriceType
	PriceLow       *float64
	PriceHigh      *float64
	AgeRestriction string
	Audience       []string
	Hero           MediaSlot
	Thumbnail      MediaSlot
	Flyer          MediaSlot
	RawData        json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Slot returns the media slot of the given kind.
func (e *Event) Slot(kind SlotKind) MediaSlot {
	switch kind {
	case SlotHero:
		return e.Hero
	case SlotThumbnail:
		return e.Thumbnail
	case SlotFlyer:
		return e.Flyer
	default:
		return MediaSlot{}
	}
}

// SetSlot replaces the media slot of the given kind.
func (e *Event) SetSlot(kind SlotKind, slot MediaSlot) {
	switch kind {
	case SlotHero:
		e.Hero = slot
	case SlotThumbnail:
		e.Thumbnail = slot
	case SlotFlyer:
		e.Flyer = slot
	}
}

// EventRef is a short pointer to an existing event.
type EventRef struct {
	ID     uuid.UUID
	Title  string
	Slug   string
	Status EventStatus
}

// Location is a canonical venue.
type Location struct {
	ID         uuid.UUID
	Name       string
	Slug       string
	Address    string
	City       string
	State      string
	PostalCode string
	PlaceID    string
	Latitude   *float64
	Longitude  *float64
	Source     Source
	IsActive   bool
}

// LocationMatch is the best similarity-search hit for a location name.
type LocationMatch struct {
	Location Location
	Score    float64
}

// Organizer is a canonical event organizer.
type Organizer struct {
	ID      uuid.UUID
	Name    string
	Slug    string
	Website string
	Email   string
	Source  Source
}

// Category is read-only for the ingestion pipeline.
type Category struct {
	ID       uuid.UUID
	Name     string
	Slug     string
	IsActive bool
}
