// Package testsupport provides in-memory stand-ins for the Postgres repository.
package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"eventsPipeline/internal/models/domain"

	"github.com/google/uuid"
)

// MemStore implements the repository interfaces of the resolver, intake and
// migration packages. Similarity nil means similarity search is unsupported.
type MemStore struct {
	mu sync.Mutex

	events     map[uuid.UUID]*domain.Event
	order      []uuid.UUID
	deleted    map[uuid.UUID]bool
	Locations  []domain.Location
	Organizers []domain.Organizer
	Categories []domain.Category

	Similarity func(candidate, existing string) float64

	CreateLocationErr  error
	CreateOrganizerErr error
	CreateEventErr     error
	FindEventErr       error

	LocationCreates  int
	OrganizerCreates int
	SlotUpdates      int
}

func NewMemStore() *MemStore {
	return &MemStore{
		events:  make(map[uuid.UUID]*domain.Event),
		deleted: make(map[uuid.UUID]bool),
	}
}

// AddEvent stores e as-is and returns its ID.
func (s *MemStore) AddEvent(e domain.Event) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if _, ok := s.events[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.events[e.ID] = &e
	return e.ID
}

// Event returns a copy of the stored event.
func (s *MemStore) Event(id uuid.UUID) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return domain.Event{}, false
	}
	return *e, true
}

// EventCount returns the number of stored events, deleted included.
func (s *MemStore) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// SoftDelete marks an event deleted.
func (s *MemStore) SoftDelete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted[id] = true
}

func (s *MemStore) FindLocationByID(_ context.Context, id uuid.UUID) (domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.Locations {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Location{}, domain.ErrNotFound
}

func (s *MemStore) FindLocationByPlaceID(_ context.Context, placeID string) (domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.Locations {
		if l.PlaceID != "" && l.PlaceID == placeID {
			return l, nil
		}
	}
	return domain.Location{}, domain.ErrNotFound
}

func (s *MemStore) FindSimilarLocation(_ context.Context, name string) (domain.LocationMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Similarity == nil {
		return domain.LocationMatch{}, domain.ErrSimilarityUnsupported
	}
	var (
		best  domain.LocationMatch
		found bool
	)
	for _, l := range s.Locations {
		if !l.IsActive {
			continue
		}
		score := s.Similarity(name, l.Name)
		if !found || score > best.Score {
			best, found = domain.LocationMatch{Location: l, Score: score}, true
		}
	}
	if !found {
		return domain.LocationMatch{}, domain.ErrNotFound
	}
	return best, nil
}

func (s *MemStore) CreateLocation(_ context.Context, loc domain.Location) (domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateLocationErr != nil {
		return domain.Location{}, s.CreateLocationErr
	}
	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	s.Locations = append(s.Locations, loc)
	s.LocationCreates++
	return loc, nil
}

func (s *MemStore) FindOrganizerByID(_ context.Context, id uuid.UUID) (domain.Organizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.Organizers {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Organizer{}, domain.ErrNotFound
}

func (s *MemStore) FindOrganizerByName(_ context.Context, name string) (domain.Organizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.Organizers {
		if strings.EqualFold(o.Name, strings.TrimSpace(name)) {
			return o, nil
		}
	}
	return domain.Organizer{}, domain.ErrNotFound
}

func (s *MemStore) CreateOrganizer(_ context.Context, org domain.Organizer) (domain.Organizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateOrganizerErr != nil {
		return domain.Organizer{}, s.CreateOrganizerErr
	}
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	s.Organizers = append(s.Organizers, org)
	s.OrganizerCreates++
	return org, nil
}

func (s *MemStore) FindCategoryByID(_ context.Context, id uuid.UUID) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.Categories {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrNotFound
}

func (s *MemStore) FindActiveCategoryBySlug(_ context.Context, slug string) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.Categories {
		if c.IsActive && c.Slug == slug {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrNotFound
}

func (s *MemStore) FindEventBySourceURL(_ context.Context, sourceURL string) (domain.EventRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FindEventErr != nil {
		return domain.EventRef{}, s.FindEventErr
	}
	for _, id := range s.order {
		e := s.events[id]
		if !s.deleted[id] && e.SourceURL == sourceURL {
			return domain.EventRef{ID: e.ID, Title: e.Title, Slug: e.Slug, Status: e.Status}, nil
		}
	}
	return domain.EventRef{}, domain.ErrNotFound
}

func (s *MemStore) EventSlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) CreateEvent(_ context.Context, e domain.Event) (domain.Event, error) {
	if s.CreateEventErr != nil {
		return domain.Event{}, s.CreateEventErr
	}
	e.ID = s.AddEvent(e)
	return e, nil
}

func (s *MemStore) FindEventsByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Event
	for _, id := range ids {
		if e, ok := s.events[id]; ok && !s.deleted[id] {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *MemStore) ListUnhostedEvents(_ context.Context, limit, offset int) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matching []domain.Event
	for _, id := range s.order {
		e := s.events[id]
		if s.deleted[id] {
			continue
		}
		for _, kind := range domain.SlotKinds {
			slot := e.Slot(kind)
			if slot.URL != "" && !slot.Hosted {
				matching = append(matching, *e)
				break
			}
		}
	}
	if offset >= len(matching) {
		return nil, nil
	}
	end := min(offset+limit, len(matching))
	return matching[offset:end], nil
}

func (s *MemStore) MarkSlotHosted(_ context.Context, eventID uuid.UUID, kind domain.SlotKind, expectedURL string, slot domain.MediaSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok || s.deleted[eventID] {
		return fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
	}
	current := e.Slot(kind)
	if current.URL != expectedURL || current.Hosted {
		return fmt.Errorf("event %s slot %s changed: %w", eventID, kind, domain.ErrNotFound)
	}
	e.SetSlot(kind, domain.MediaSlot{
		URL:         slot.URL,
		StoragePath: slot.StoragePath,
		Hosted:      true,
		RawURL:      expectedURL,
	})
	s.SlotUpdates++
	return nil
}

// FixedSimilarity returns a similarity function with preset scores keyed by
// existing location name. Unknown names score 0.
func FixedSimilarity(scores map[string]float64) func(string, string) float64 {
	return func(_ string, existing string) float64 {
		return scores[existing]
	}
}

// TrigramSimilarity approximates pg_trgm's similarity().
func TrigramSimilarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

func trigrams(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(s)) {
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			out[padded[i:i+3]] = struct{}{}
		}
	}
	return out
}
