// Package resolver maps partial location, organizer and category data from
// intake submissions onto canonical catalog records.
//
// Location strategies run in order: external place ID, name similarity at or
// above the configured threshold, then creation. Organizers match on exact
// case-insensitive name or are created. Categories are lookup-only. Write
// failures and unknown explicit IDs never abort intake; they leave the
// relation unset.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"eventsPipeline/internal/metrics"
	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/utils/logger/sl"
	"eventsPipeline/internal/utils/slug"

	"github.com/google/uuid"
)

// DefaultSimilarityThreshold treats "The Pabst" and "The Pabst Theater" as the same venue.
const DefaultSimilarityThreshold = 0.70

// Strategy names how a relation was resolved.
type Strategy string

const (
	StrategyExplicit   Strategy = "explicit"
	StrategyPlaceID    Strategy = "place_id"
	StrategySimilarity Strategy = "similarity"
	StrategyName       Strategy = "name"
	StrategySlug       Strategy = "slug"
	StrategyCreated    Strategy = "created"
	StrategyUnresolved Strategy = "unresolved"
	StrategyFailed     Strategy = "failed"
)

type LocationStore interface {
	FindLocationByID(ctx context.Context, id uuid.UUID) (domain.Location, error)
	FindLocationByPlaceID(ctx context.Context, placeID string) (domain.Location, error)
	FindSimilarLocation(ctx context.Context, name string) (domain.LocationMatch, error)
	CreateLocation(ctx context.Context, loc domain.Location) (domain.Location, error)
}

type OrganizerStore interface {
	FindOrganizerByID(ctx context.Context, id uuid.UUID) (domain.Organizer, error)
	FindOrganizerByName(ctx context.Context, name string) (domain.Organizer, error)
	CreateOrganizer(ctx context.Context, org domain.Organizer) (domain.Organizer, error)
}

type CategoryStore interface {
	FindCategoryByID(ctx context.Context, id uuid.UUID) (domain.Category, error)
	FindActiveCategoryBySlug(ctx context.Context, slug string) (domain.Category, error)
}

// Store is everything the resolver reads and writes.
type Store interface {
	LocationStore
	OrganizerStore
	CategoryStore
}

// LocationInput describes a location reference. ID, when set, must exist and wins over the other fields.
type LocationInput struct {
	ID         *uuid.UUID
	Name       string
	Address    string
	City       string
	State      string
	PostalCode string
	PlaceID    string
	Latitude   *float64
	Longitude  *float64
}

// OrganizerInput describes an organizer reference. ID, when set, must exist and wins over the name.
type OrganizerInput struct {
	ID      *uuid.UUID
	Name    string
	Website string
	Email   string
}

// CategoryInput references a category by ID or slug.
type CategoryInput struct {
	ID   *uuid.UUID
	Slug string
}

// Resolution is the outcome of resolving one relation. ID is nil when the
// relation stays unset; Error carries the reason for StrategyFailed.
type Resolution struct {
	Entity   string
	ID       *uuid.UUID
	Strategy Strategy
	Score    float64
	Error    string
}

type Resolver struct {
	log       *slog.Logger
	store     Store
	threshold float64
	metrics   *metrics.Metrics
}

// New returns a resolver. A threshold outside (0, 1] falls back to DefaultSimilarityThreshold.
func New(log *slog.Logger, store Store, threshold float64, m *metrics.Metrics) *Resolver {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Resolver{
		log:       log,
		store:     store,
		threshold: threshold,
		metrics:   m,
	}
}

// ResolveLocation finds or creates the canonical location for in.
func (r *Resolver) ResolveLocation(ctx context.Context, in *LocationInput) Resolution {
	op := "Resolver.ResolveLocation()"
	log := r.log.With(slog.String("op", op))

	res := Resolution{Entity: "location", Strategy: StrategyUnresolved}
	defer func() { r.metrics.Resolution(res.Entity, string(res.Strategy)) }()

	if in == nil {
		return res
	}
	if in.ID != nil {
		loc, err := r.store.FindLocationByID(ctx, *in.ID)
		if err != nil {
			log.Warn("explicit location id rejected", slog.String("id", in.ID.String()), sl.Err(err))
			res.Strategy, res.Error = StrategyFailed, explicitIDError("location", *in.ID, err)
			return res
		}
		res.ID, res.Strategy = &loc.ID, StrategyExplicit
		return res
	}

	if placeID := strings.TrimSpace(in.PlaceID); placeID != "" {
		loc, err := r.store.FindLocationByPlaceID(ctx, placeID)
		switch {
		case err == nil:
			res.ID, res.Strategy = &loc.ID, StrategyPlaceID
			return res
		case !errors.Is(err, domain.ErrNotFound):
			log.Warn("place id lookup failed", slog.String("placeID", placeID), sl.Err(err))
		}
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return res
	}

	match, err := r.store.FindSimilarLocation(ctx, name)
	switch {
	case err == nil:
		if match.Score >= r.threshold {
			res.ID, res.Strategy, res.Score = &match.Location.ID, StrategySimilarity, match.Score
			log.Debug("location matched by similarity",
				slog.String("candidate", name),
				slog.String("match", match.Location.Name),
				slog.Float64("score", match.Score),
			)
			return res
		}
	case errors.Is(err, domain.ErrSimilarityUnsupported):
		log.Debug("similarity search unsupported, creating location", slog.String("name", name))
	case errors.Is(err, domain.ErrNotFound):
	default:
		log.Warn("similarity search failed", slog.String("name", name), sl.Err(err))
	}

	created, err := r.store.CreateLocation(ctx, domain.Location{
		ID:         uuid.New(),
		Name:       name,
		Slug:       slug.Make(name),
		Address:    strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		PlaceID:    strings.TrimSpace(in.PlaceID),
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Source:     domain.SourceScraper,
		IsActive:   true,
	})
	if err != nil {
		log.Error("failed to create location", slog.String("name", name), sl.Err(err))
		res.Strategy, res.Error = StrategyFailed, err.Error()
		return res
	}

	log.Info("location created", slog.String("id", created.ID.String()), slog.String("name", name))
	res.ID, res.Strategy = &created.ID, StrategyCreated
	return res
}

// ResolveOrganizer finds the organizer by case-insensitive name or creates it.
func (r *Resolver) ResolveOrganizer(ctx context.Context, in *OrganizerInput) Resolution {
	op := "Resolver.ResolveOrganizer()"
	log := r.log.With(slog.String("op", op))

	res := Resolution{Entity: "organizer", Strategy: StrategyUnresolved}
	defer func() { r.metrics.Resolution(res.Entity, string(res.Strategy)) }()

	if in == nil {
		return res
	}
	if in.ID != nil {
		org, err := r.store.FindOrganizerByID(ctx, *in.ID)
		if err != nil {
			log.Warn("explicit organizer id rejected", slog.String("id", in.ID.String()), sl.Err(err))
			res.Strategy, res.Error = StrategyFailed, explicitIDError("organizer", *in.ID, err)
			return res
		}
		res.ID, res.Strategy = &org.ID, StrategyExplicit
		return res
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return res
	}

	org, err := r.store.FindOrganizerByName(ctx, name)
	switch {
	case err == nil:
		res.ID, res.Strategy = &org.ID, StrategyName
		return res
	case !errors.Is(err, domain.ErrNotFound):
		log.Warn("organizer lookup failed", slog.String("name", name), sl.Err(err))
	}

	created, err := r.store.CreateOrganizer(ctx, domain.Organizer{
		ID:      uuid.New(),
		Name:    name,
		Slug:    slug.Make(name),
		Website: strings.TrimSpace(in.Website),
		Email:   strings.TrimSpace(in.Email),
		Source:  domain.SourceScraper,
	})
	if err != nil {
		log.Error("failed to create organizer", slog.String("name", name), sl.Err(err))
		res.Strategy, res.Error = StrategyFailed, err.Error()
		return res
	}

	log.Info("organizer created", slog.String("id", created.ID.String()), slog.String("name", name))
	res.ID, res.Strategy = &created.ID, StrategyCreated
	return res
}

// ResolveCategory looks a category up by ID, or by slug among active categories.
// It never creates categories.
func (r *Resolver) ResolveCategory(ctx context.Context, in *CategoryInput) Resolution {
	op := "Resolver.ResolveCategory()"
	log := r.log.With(slog.String("op", op))

	res := Resolution{Entity: "category", Strategy: StrategyUnresolved}
	defer func() { r.metrics.Resolution(res.Entity, string(res.Strategy)) }()

	if in == nil {
		return res
	}

	var (
		cat      domain.Category
		err      error
		strategy Strategy
	)
	switch s := strings.TrimSpace(in.Slug); {
	case in.ID != nil:
		cat, err = r.store.FindCategoryByID(ctx, *in.ID)
		strategy = StrategyExplicit
	case s != "":
		cat, err = r.store.FindActiveCategoryBySlug(ctx, strings.ToLower(s))
		strategy = StrategySlug
	default:
		return res
	}

	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("category lookup failed", sl.Err(err))
			res.Strategy, res.Error = StrategyFailed, err.Error()
		}
		return res
	}

	res.ID, res.Strategy = &cat.ID, strategy
	return res
}

func explicitIDError(entity string, id uuid.UUID, err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Sprintf("%s %s does not exist", entity, id)
	}
	return err.Error()
}
