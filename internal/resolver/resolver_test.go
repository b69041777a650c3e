package resolver

import (
	"context"
	"errors"
	"testing"

	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/testsupport"

	"github.com/google/uuid"
)

func newResolver(store *testsupport.MemStore) *Resolver {
	return New(testsupport.DiscardLogger(), store, DefaultSimilarityThreshold, nil)
}

func TestResolveLocationByPlaceIDCreatesNothing(t *testing.T) {
	store := testsupport.NewMemStore()
	existing := domain.Location{ID: uuid.New(), Name: "Turner Hall Ballroom", PlaceID: "ChIJ-turner", IsActive: true}
	store.Locations = append(store.Locations, existing)

	res := newResolver(store).ResolveLocation(context.Background(), &LocationInput{
		Name:    "Something Else Entirely",
		PlaceID: "ChIJ-turner",
	})

	if res.Strategy != StrategyPlaceID || res.ID == nil || *res.ID != existing.ID {
		t.Fatalf("expected place id match on %s, got %+v", existing.ID, res)
	}
	if store.LocationCreates != 0 {
		t.Fatalf("expected no location writes, got %d", store.LocationCreates)
	}
}

func TestResolveLocationSimilarityThreshold(t *testing.T) {
	existing := domain.Location{ID: uuid.New(), Name: "Turner Hall Ballroom", IsActive: true}

	cases := []struct {
		name        string
		score       float64
		wantReuse   bool
		wantCreates int
	}{
		{name: "above threshold reuses", score: 0.82, wantReuse: true, wantCreates: 0},
		{name: "at threshold reuses", score: 0.70, wantReuse: true, wantCreates: 0},
		{name: "below threshold creates", score: 0.55, wantReuse: false, wantCreates: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := testsupport.NewMemStore()
			store.Locations = append(store.Locations, existing)
			store.Similarity = testsupport.FixedSimilarity(map[string]float64{existing.Name: tc.score})

			res := newResolver(store).ResolveLocation(context.Background(), &LocationInput{Name: "Turner Hall", City: "Milwaukee"})

			if res.ID == nil {
				t.Fatalf("expected a resolved ID, got %+v", res)
			}
			if reused := *res.ID == existing.ID; reused != tc.wantReuse {
				t.Fatalf("reuse = %v, want %v (%+v)", reused, tc.wantReuse, res)
			}
			if store.LocationCreates != tc.wantCreates {
				t.Fatalf("creates = %d, want %d", store.LocationCreates, tc.wantCreates)
			}
		})
	}
}

func TestResolveLocationCreatesScraperSourcedLocation(t *testing.T) {
	store := testsupport.NewMemStore()

	res := newResolver(store).ResolveLocation(context.Background(), &LocationInput{
		Name:    "  The Pabst Theater ",
		City:    "Milwaukee",
		PlaceID: "ChIJ-pabst",
	})

	if res.Strategy != StrategyCreated || res.ID == nil {
		t.Fatalf("expected created location, got %+v", res)
	}
	if len(store.Locations) != 1 {
		t.Fatalf("expected one location, got %d", len(store.Locations))
	}
	loc := store.Locations[0]
	if loc.Name != "The Pabst Theater" || loc.Slug != "the-pabst-theater" {
		t.Fatalf("unexpected name/slug %q/%q", loc.Name, loc.Slug)
	}
	if loc.Source != domain.SourceScraper || !loc.IsActive || loc.PlaceID != "ChIJ-pabst" {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestResolveLocationUnsupportedSimilarityFallsBackToCreate(t *testing.T) {
	store := testsupport.NewMemStore()
	store.Locations = append(store.Locations, domain.Location{ID: uuid.New(), Name: "Turner Hall", IsActive: true})
	// Similarity left nil: the capability is unavailable.

	res := newResolver(store).ResolveLocation(context.Background(), &LocationInput{Name: "Turner Hall"})
	if res.Strategy != StrategyCreated {
		t.Fatalf("expected create fallback, got %+v", res)
	}
}

func TestResolveLocationWriteFailureIsNonFatal(t *testing.T) {
	store := testsupport.NewMemStore()
	store.CreateLocationErr = errors.New("insert failed")

	res := newResolver(store).ResolveLocation(context.Background(), &LocationInput{Name: "New Venue"})
	if res.ID != nil || res.Strategy != StrategyFailed || res.Error == "" {
		t.Fatalf("expected failed resolution with nil ID, got %+v", res)
	}
}

func TestResolveExplicitIDs(t *testing.T) {
	store := testsupport.NewMemStore()
	venue := domain.Location{ID: uuid.New(), Name: "Turner Hall", IsActive: true}
	org := domain.Organizer{ID: uuid.New(), Name: "Riverwest Collective"}
	store.Locations = append(store.Locations, venue)
	store.Organizers = append(store.Organizers, org)
	r := newResolver(store)
	ctx := context.Background()
	unknown := uuid.New()

	res := r.ResolveLocation(ctx, &LocationInput{ID: &venue.ID, Name: "ignored"})
	if res.Strategy != StrategyExplicit || res.ID == nil || *res.ID != venue.ID {
		t.Fatalf("existing location: %+v", res)
	}
	res = r.ResolveOrganizer(ctx, &OrganizerInput{ID: &org.ID, Name: "ignored"})
	if res.Strategy != StrategyExplicit || res.ID == nil || *res.ID != org.ID {
		t.Fatalf("existing organizer: %+v", res)
	}

	res = r.ResolveLocation(ctx, &LocationInput{ID: &unknown, Name: "Would Be Created"})
	if res.Strategy != StrategyFailed || res.ID != nil || res.Error == "" {
		t.Fatalf("unknown location: %+v", res)
	}
	res = r.ResolveOrganizer(ctx, &OrganizerInput{ID: &unknown, Name: "Would Be Created"})
	if res.Strategy != StrategyFailed || res.ID != nil || res.Error == "" {
		t.Fatalf("unknown organizer: %+v", res)
	}

	if store.LocationCreates != 0 || store.OrganizerCreates != 0 {
		t.Fatal("explicit ids must never create entities")
	}
}

func TestResolveLocationNil(t *testing.T) {
	res := newResolver(testsupport.NewMemStore()).ResolveLocation(context.Background(), nil)
	if res.ID != nil || res.Strategy != StrategyUnresolved {
		t.Fatalf("unexpected resolution %+v", res)
	}
}

func TestResolveOrganizer(t *testing.T) {
	store := testsupport.NewMemStore()
	existing := domain.Organizer{ID: uuid.New(), Name: "Milwaukee Jazz Society"}
	store.Organizers = append(store.Organizers, existing)
	r := newResolver(store)

	res := r.ResolveOrganizer(context.Background(), &OrganizerInput{Name: "milwaukee JAZZ society"})
	if res.Strategy != StrategyName || *res.ID != existing.ID {
		t.Fatalf("expected case-insensitive match, got %+v", res)
	}

	res = r.ResolveOrganizer(context.Background(), &OrganizerInput{Name: "Riverwest Collective", Website: "https://rw.example"})
	if res.Strategy != StrategyCreated || store.OrganizerCreates != 1 {
		t.Fatalf("expected organizer creation, got %+v", res)
	}
	if store.Organizers[1].Source != domain.SourceScraper || store.Organizers[1].Slug != "riverwest-collective" {
		t.Fatalf("unexpected organizer %+v", store.Organizers[1])
	}

	store.CreateOrganizerErr = errors.New("boom")
	res = r.ResolveOrganizer(context.Background(), &OrganizerInput{Name: "Another"})
	if res.ID != nil || res.Strategy != StrategyFailed {
		t.Fatalf("expected non-fatal failure, got %+v", res)
	}
}

func TestResolveCategoryIsLookupOnly(t *testing.T) {
	store := testsupport.NewMemStore()
	music := domain.Category{ID: uuid.New(), Name: "Music", Slug: "music", IsActive: true}
	retired := domain.Category{ID: uuid.New(), Name: "Retired", Slug: "retired", IsActive: false}
	store.Categories = append(store.Categories, music, retired)
	r := newResolver(store)

	if res := r.ResolveCategory(context.Background(), &CategoryInput{Slug: "Music"}); res.ID == nil || *res.ID != music.ID {
		t.Fatalf("expected slug match, got %+v", res)
	}
	if res := r.ResolveCategory(context.Background(), &CategoryInput{ID: &music.ID}); res.Strategy != StrategyExplicit {
		t.Fatalf("expected explicit match, got %+v", res)
	}
	if res := r.ResolveCategory(context.Background(), &CategoryInput{Slug: "retired"}); res.ID != nil {
		t.Fatalf("inactive category must not resolve by slug, got %+v", res)
	}
	if res := r.ResolveCategory(context.Background(), &CategoryInput{Slug: "comedy"}); res.ID != nil || res.Strategy != StrategyUnresolved {
		t.Fatalf("unknown category must stay unresolved, got %+v", res)
	}
	if len(store.Categories) != 2 {
		t.Fatal("categories must never be created")
	}
}

func TestTrigramSimilarityPrefersCloseNames(t *testing.T) {
	store := testsupport.NewMemStore()
	store.Similarity = testsupport.TrigramSimilarity
	pabst := domain.Location{ID: uuid.New(), Name: "The Pabst Theater", IsActive: true}
	store.Locations = append(store.Locations, pabst, domain.Location{ID: uuid.New(), Name: "Cactus Club", IsActive: true})

	res := New(testsupport.DiscardLogger(), store, 0.5, nil).ResolveLocation(context.Background(), &LocationInput{Name: "Pabst Theater"})
	if res.Strategy != StrategySimilarity || *res.ID != pabst.ID {
		t.Fatalf("expected similarity match on Pabst, got %+v", res)
	}
}
