// Package intake accepts event submissions from external collectors and
// persists them as pending events.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventsPipeline/internal/metrics"
	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/resolver"
	"eventsPipeline/internal/utils/logger/sl"
	"eventsPipeline/internal/utils/slug"

	"github.com/google/uuid"
)

const notifyTimeout = 15 * time.Second

type EventStore interface {
	FindEventBySourceURL(ctx context.Context, sourceURL string) (domain.EventRef, error)
	EventSlugExists(ctx context.Context, slug string) (bool, error)
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
}

type EntityResolver interface {
	ResolveLocation(ctx context.Context, in *resolver.LocationInput) resolver.Resolution
	ResolveOrganizer(ctx context.Context, in *resolver.OrganizerInput) resolver.Resolution
	ResolveCategory(ctx context.Context, in *resolver.CategoryInput) resolver.Resolution
}

// Notifier is told about every newly created pending event.
type Notifier interface {
	NotifyPending(ctx context.Context, event domain.Event) error
}

// Result describes a created event.
type Result struct {
	ID          uuid.UUID
	Slug        string
	Status      domain.EventStatus
	LocationID  *uuid.UUID
	OrganizerID *uuid.UUID
	CategoryID  *uuid.UUID
	Resolutions []resolver.Resolution
}

type Service struct {
	log              *slog.Logger
	store            EventStore
	resolver         EntityResolver
	notifier         Notifier
	metrics          *metrics.Metrics
	defaultPriceType domain.PriceType
	zone             *time.Location
}

// NewService builds the intake service. An invalid defaultPriceType falls back to "varies".
func NewService(log *slog.Logger, store EventStore, r EntityResolver, defaultPriceType string, m *metrics.Metrics) *Service {
	pt, ok := domain.ParsePriceType(defaultPriceType)
	if !ok {
		pt = domain.PriceVaries
	}
	return &Service{
		log:              log,
		store:            store,
		resolver:         r,
		metrics:          m,
		defaultPriceType: pt,
		zone:             time.UTC,
	}
}

// WithTimezone sets the zone of submitted timestamps that carry no offset.
func (s *Service) WithTimezone(loc *time.Location) *Service {
	if loc != nil {
		s.zone = loc
	}
	return s
}

// WithNotifier sets the notifier told about new pending events.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// Submit validates, deduplicates and stores one submission. raw is the payload
// as received and is kept for operator inspection; when empty the submission
// itself is stored.
//
// Errors are *ValidationError, *DuplicateError or an internal failure.
func (s *Service) Submit(ctx context.Context, sub Submission, raw json.RawMessage) (Result, error) {
	op := "intake.Service.Submit()"
	log := s.log.With(slog.String("op", op))

	v, err := validate(sub, s.zone)
	if err != nil {
		s.metrics.IntakeOutcome("invalid")
		return Result{}, err
	}
	log = log.With(slog.String("sourceURL", v.sourceURL))

	// Check-then-insert without a lock: concurrent submissions of one source URL may both pass.
	existing, err := s.store.FindEventBySourceURL(ctx, v.sourceURL)
	switch {
	case err == nil:
		log.Info("duplicate submission", slog.String("existingID", existing.ID.String()))
		s.metrics.IntakeOutcome("duplicate")
		return Result{}, &DuplicateError{Existing: existing}
	case !errors.Is(err, domain.ErrNotFound):
		s.metrics.IntakeOutcome("error")
		return Result{}, fmt.Errorf("%s: dedup lookup: %w", op, err)
	}

	locRes := s.resolver.ResolveLocation(ctx, locationInput(v.locationID, sub.Location))
	orgRes := s.resolver.ResolveOrganizer(ctx, organizerInput(v.organizerID, sub.Organizer))
	catRes := s.resolver.ResolveCategory(ctx, categoryInput(v.categoryID, sub.CategorySlug))

	event := domain.Event{
		ID:             uuid.New(),
		Title:          v.title,
		Description:    strings.TrimSpace(deref(sub.Description)),
		StartAt:        v.startAt,
		EndAt:          v.endAt,
		EventDate:      eventDate(v),
		SourceURL:      v.sourceURL,
		Status:         domain.EventStatusPendingReview,
		Source:         domain.SourceScraper,
		LocationID:     locRes.ID,
		OrganizerID:    orgRes.ID,
		CategoryID:     catRes.ID,
		PriceType:      s.priceType(sub.PriceType),
		PriceLow:       sub.PriceLow,
		PriceHigh:      sub.PriceHigh,
		AgeRestriction: strings.TrimSpace(deref(sub.AgeRestriction)),
		Audience:       cleanAudience(sub.Audience),
		Hero:           domain.MediaSlot{URL: strings.TrimSpace(deref(sub.ImageURL))},
		Thumbnail:      domain.MediaSlot{URL: strings.TrimSpace(deref(sub.ThumbnailURL))},
		Flyer:          domain.MediaSlot{URL: strings.TrimSpace(deref(sub.FlyerURL))},
	}

	event.RawData, err = rawPayload(sub, raw)
	if err != nil {
		s.metrics.IntakeOutcome("error")
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	event.Slug, err = s.uniqueSlug(ctx, event)
	if err != nil {
		s.metrics.IntakeOutcome("error")
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.store.CreateEvent(ctx, event)
	if err != nil {
		s.metrics.IntakeOutcome("error")
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("event created",
		slog.String("id", created.ID.String()),
		slog.String("slug", created.Slug),
	)
	s.metrics.IntakeOutcome("created")
	s.notify(created)

	return Result{
		ID:          created.ID,
		Slug:        created.Slug,
		Status:      created.Status,
		LocationID:  created.LocationID,
		OrganizerID: created.OrganizerID,
		CategoryID:  created.CategoryID,
		Resolutions: []resolver.Resolution{locRes, orgRes, catRes},
	}, nil
}

func (s *Service) notify(event domain.Event) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyPending(ctx, event); err != nil {
			s.log.Warn("failed to notify reviewers", slog.String("eventID", event.ID.String()), sl.Err(err))
		}
	}()
}

func (s *Service) priceType(raw *string) domain.PriceType {
	if raw == nil {
		return s.defaultPriceType
	}
	pt, ok := domain.ParsePriceType(strings.ToLower(strings.TrimSpace(*raw)))
	if !ok {
		return s.defaultPriceType
	}
	return pt
}

// uniqueSlug returns title-date, with a short ID suffix when that is taken.
func (s *Service) uniqueSlug(ctx context.Context, event domain.Event) (string, error) {
	base := slug.Make(event.Title)
	if base == "" {
		base = "event"
	}
	candidates := []string{
		slug.WithSuffix(base, event.EventDate.Format(dateLayout)),
		slug.WithSuffix(base, event.EventDate.Format(dateLayout)+"-"+event.ID.String()[:8]),
	}
	for _, c := range candidates {
		taken, err := s.store.EventSlugExists(ctx, c)
		if err != nil {
			return "", fmt.Errorf("slug lookup: %w", err)
		}
		if !taken {
			return c, nil
		}
	}
	return slug.WithSuffix(base, event.ID.String()), nil
}

func eventDate(v validated) time.Time {
	if v.eventDate != nil {
		return *v.eventDate
	}
	y, m, d := v.startAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rawPayload(sub Submission, raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) > 0 && json.Valid(raw) {
		return raw, nil
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode raw payload: %w", err)
	}
	return b, nil
}

func cleanAudience(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

func locationInput(id *uuid.UUID, p *LocationPayload) *resolver.LocationInput {
	if id != nil {
		return &resolver.LocationInput{ID: id}
	}
	if p == nil {
		return nil
	}
	return &resolver.LocationInput{
		Name:       p.Name,
		Address:    deref(p.Address),
		City:       deref(p.City),
		State:      deref(p.State),
		PostalCode: deref(p.PostalCode),
		PlaceID:    deref(p.PlaceID),
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
	}
}

func organizerInput(id *uuid.UUID, p *OrganizerPayload) *resolver.OrganizerInput {
	if id != nil {
		return &resolver.OrganizerInput{ID: id}
	}
	if p == nil {
		return nil
	}
	return &resolver.OrganizerInput{
		Name:    p.Name,
		Website: deref(p.Website),
		Email:   deref(p.Email),
	}
}

func categoryInput(id *uuid.UUID, slugRef *string) *resolver.CategoryInput {
	if id == nil && strings.TrimSpace(deref(slugRef)) == "" {
		return nil
	}
	return &resolver.CategoryInput{ID: id, Slug: deref(slugRef)}
}
