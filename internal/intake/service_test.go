package intake

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/resolver"
	"eventsPipeline/internal/testsupport"

	"github.com/google/uuid"
)

func ptr[T any](v T) *T { return &v }

func newService(store *testsupport.MemStore) *Service {
	log := testsupport.DiscardLogger()
	r := resolver.New(log, store, resolver.DefaultSimilarityThreshold, nil)
	return NewService(log, store, r, "varies", nil)
}

func validSubmission(sourceURL string) Submission {
	return Submission{
		Title:     "Jazz Night at the Pabst",
		StartAt:   "2024-05-01T19:30:00-05:00",
		SourceURL: sourceURL,
	}
}

func TestSubmitCreatesPendingEvent(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := newService(store)

	for i, src := range []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"} {
		res, err := svc.Submit(context.Background(), validSubmission(src), nil)
		if err != nil {
			t.Fatalf("submit %s: %v", src, err)
		}
		if res.Status != domain.EventStatusPendingReview {
			t.Fatalf("status = %s", res.Status)
		}
		if got := store.EventCount(); got != i+1 {
			t.Fatalf("after %d submissions store holds %d events", i+1, got)
		}

		ev, _ := store.Event(res.ID)
		if ev.Source != domain.SourceScraper || ev.SourceURL != src {
			t.Fatalf("unexpected stored event %+v", ev)
		}
	}
}

func TestSubmitDuplicateSourceURL(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := newService(store)
	sub := validSubmission("https://example.com/events/42")

	first, err := svc.Submit(context.Background(), sub, nil)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err = svc.Submit(context.Background(), sub, nil)
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.Existing.ID != first.ID || dup.Existing.Status != domain.EventStatusPendingReview {
		t.Fatalf("duplicate points at %+v, want %s", dup.Existing, first.ID)
	}
	if store.EventCount() != 1 {
		t.Fatalf("duplicate must not write, store holds %d", store.EventCount())
	}
}

func TestSubmitDeletedEventIsNotADuplicate(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := newService(store)
	sub := validSubmission("https://example.com/events/7")

	first, err := svc.Submit(context.Background(), sub, nil)
	if err != nil {
		t.Fatal(err)
	}
	store.SoftDelete(first.ID)

	second, err := svc.Submit(context.Background(), sub, nil)
	if err != nil {
		t.Fatalf("resubmit after delete: %v", err)
	}
	if second.Slug == first.Slug {
		t.Fatalf("slug %q reused", second.Slug)
	}
}

func TestSubmitReportsAllViolations(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := newService(store)

	_, err := svc.Submit(context.Background(), Submission{
		Title:      "Hi",
		StartAt:    "next friday",
		SourceURL:  "",
		EndAt:      ptr("2024-01-01T00:00:00Z"),
		PriceLow:   ptr(30.0),
		PriceHigh:  ptr(10.0),
		LocationID: ptr("not-a-uuid"),
		Organizer:  &OrganizerPayload{Name: "  "},
	}, nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got := make(map[string]string)
	for _, v := range verr.Violations {
		got[v.Field] = v.Rule
	}
	want := map[string]string{
		"title":          RuleLength,
		"start_at":       RuleFormat,
		"source_url":     RuleRequired,
		"price_high":     RuleOrder,
		"location_id":    RuleFormat,
		"organizer.name": RuleRequired,
	}
	for field, rule := range want {
		if got[field] != rule {
			t.Errorf("field %s: rule = %q, want %q (all: %+v)", field, got[field], rule, verr.Violations)
		}
	}
	if store.EventCount() != 0 || store.OrganizerCreates != 0 {
		t.Fatal("validation failure must not write anything")
	}
}

func TestValidateEndBeforeStart(t *testing.T) {
	sub := validSubmission("https://example.com/x")
	sub.EndAt = ptr("2024-05-01T18:00:00-05:00")

	_, err := validate(sub, time.UTC)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Violations) != 1 || verr.Violations[0].Rule != RuleOrder {
		t.Fatalf("expected a single order violation, got %v", err)
	}
}

func TestValidateTitleBounds(t *testing.T) {
	cases := []struct {
		title string
		ok    bool
	}{
		{"abc", true},
		{"ab", false},
		{"   ", false},
		{strings.Repeat("x", 200), true},
		{strings.Repeat("x", 201), false},
		{"Ñoño", true},
	}
	for _, tc := range cases {
		sub := validSubmission("https://example.com/x")
		sub.Title = tc.title
		_, err := validate(sub, time.UTC)
		if (err == nil) != tc.ok {
			t.Errorf("title %q: err = %v, want ok=%v", tc.title, err, tc.ok)
		}
	}
}

func TestValidateTimestampForms(t *testing.T) {
	madrid := time.FixedZone("CEST", 2*60*60)
	cases := []struct {
		startAt string
		ok      bool
		want    time.Time
	}{
		{startAt: "2024-05-01T19:30:00-05:00", ok: true, want: time.Date(2024, 5, 2, 0, 30, 0, 0, time.UTC)},
		{startAt: "2024-05-01T19:30:00Z", ok: true, want: time.Date(2024, 5, 1, 19, 30, 0, 0, time.UTC)},
		{startAt: "2024-05-01T19:30:00.250+02:00", ok: true, want: time.Date(2024, 5, 1, 17, 30, 0, 250e6, time.UTC)},
		{startAt: "2024-05-01T19:30:00", ok: true, want: time.Date(2024, 5, 1, 17, 30, 0, 0, time.UTC)},
		{startAt: "2024-05-01T19:30", ok: true, want: time.Date(2024, 5, 1, 17, 30, 0, 0, time.UTC)},
		{startAt: "2024-05-01"},
		{startAt: "01/05/2024 19:30"},
		{startAt: "next friday"},
	}
	for _, tc := range cases {
		t.Run(tc.startAt, func(t *testing.T) {
			sub := validSubmission("https://example.com/x")
			sub.StartAt = tc.startAt
			v, err := validate(sub, madrid)
			if (err == nil) != tc.ok {
				t.Fatalf("err = %v, want ok=%v", err, tc.ok)
			}
			if tc.ok && !v.startAt.Equal(tc.want) {
				t.Fatalf("start = %s, want %s", v.startAt.UTC(), tc.want)
			}
		})
	}
}

func TestSubmitLocalTimestampsUseServiceZone(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := newService(store).WithTimezone(time.FixedZone("UTC-5", -5*60*60))

	sub := validSubmission("https://example.com/local-time")
	sub.StartAt = "2024-05-01T19:30"
	sub.EndAt = ptr("2024-05-01T23:00:00")

	res, err := svc.Submit(context.Background(), sub, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	ev, _ := store.Event(res.ID)
	if want := time.Date(2024, 5, 2, 0, 30, 0, 0, time.UTC); !ev.StartAt.Equal(want) {
		t.Fatalf("start = %s, want %s", ev.StartAt.UTC(), want)
	}
	if ev.EndAt == nil || !ev.EndAt.Equal(time.Date(2024, 5, 2, 4, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", ev.EndAt)
	}
	if got := ev.EventDate.Format("2006-01-02"); got != "2024-05-01" {
		t.Fatalf("event date = %s, want the local calendar date", got)
	}
}

func TestSubmitDerivesDateAndDefaultsPriceType(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := newService(store)

	sub := validSubmission("https://example.com/late-show")
	sub.StartAt = "2024-05-01T23:30:00-05:00"
	sub.PriceType = ptr("pay-what-you-want")

	res, err := svc.Submit(context.Background(), sub, nil)
	if err != nil {
		t.Fatal(err)
	}
	ev, _ := store.Event(res.ID)

	if got := ev.EventDate.Format("2006-01-02"); got != "2024-05-01" {
		t.Fatalf("event date = %s, want date portion of start_at", got)
	}
	if ev.PriceType != domain.PriceVaries {
		t.Fatalf("price type = %s, want varies", ev.PriceType)
	}
	if res.Slug != "jazz-night-at-the-pabst-2024-05-01" {
		t.Fatalf("slug = %s", res.Slug)
	}

	sub = validSubmission("https://example.com/late-show-2")
	sub.EventDate = ptr("2024-05-02")
	sub.PriceType = ptr("Free")
	res, err = svc.Submit(context.Background(), sub, nil)
	if err != nil {
		t.Fatal(err)
	}
	ev, _ = store.Event(res.ID)
	if ev.EventDate.Format("2006-01-02") != "2024-05-02" || ev.PriceType != domain.PriceFree {
		t.Fatalf("unexpected date/price %s/%s", ev.EventDate, ev.PriceType)
	}
}

func TestSubmitSlugCollisionGetsSuffix(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := newService(store)

	a, err := svc.Submit(context.Background(), validSubmission("https://example.com/1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Submit(context.Background(), validSubmission("https://example.com/2"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Slug == b.Slug || !strings.HasPrefix(b.Slug, a.Slug+"-") {
		t.Fatalf("slugs %q and %q", a.Slug, b.Slug)
	}
}

func TestSubmitResolvesEntitiesAndNeverHostsMedia(t *testing.T) {
	store := testsupport.NewMemStore()
	music := domain.Category{ID: uuid.New(), Name: "Music", Slug: "music", IsActive: true}
	store.Categories = append(store.Categories, music)
	svc := newService(store)

	sub := validSubmission("https://example.com/with-entities")
	sub.CategorySlug = ptr("music")
	sub.Location = &LocationPayload{Name: "Turner Hall", City: ptr("Milwaukee")}
	sub.Organizer = &OrganizerPayload{Name: "Riverwest Collective"}
	sub.ImageURL = ptr("https://storage.example.org/event-images/already-ours.jpg")
	sub.Audience = []string{"all ages", " All Ages ", ""}

	res, err := svc.Submit(context.Background(), sub, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.LocationID == nil || res.OrganizerID == nil || res.CategoryID == nil || *res.CategoryID != music.ID {
		t.Fatalf("unexpected resolution result %+v", res)
	}
	if len(res.Resolutions) != 3 {
		t.Fatalf("expected three resolutions, got %d", len(res.Resolutions))
	}

	ev, _ := store.Event(res.ID)
	for _, kind := range domain.SlotKinds {
		if ev.Slot(kind).Hosted {
			t.Fatalf("slot %s hosted at intake", kind)
		}
	}
	if len(ev.Audience) != 1 || ev.Audience[0] != "all ages" {
		t.Fatalf("audience = %v", ev.Audience)
	}
	if len(store.Categories) != 1 {
		t.Fatal("intake must not create categories")
	}
}

func TestSubmitResolutionFailureLeavesRelationUnset(t *testing.T) {
	store := testsupport.NewMemStore()
	store.CreateLocationErr = errors.New("insert failed")
	svc := newService(store)

	sub := validSubmission("https://example.com/no-venue")
	sub.Location = &LocationPayload{Name: "Brand New Venue"}

	res, err := svc.Submit(context.Background(), sub, nil)
	if err != nil {
		t.Fatalf("resolution failure must not abort intake: %v", err)
	}
	if res.LocationID != nil {
		t.Fatalf("location id = %v, want unset", res.LocationID)
	}
	if res.Resolutions[0].Strategy != resolver.StrategyFailed {
		t.Fatalf("trace = %+v", res.Resolutions[0])
	}
}

func TestSubmitUnknownExplicitIDsLeaveRelationsUnset(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := newService(store)

	sub := validSubmission("https://example.com/unknown-refs")
	sub.LocationID = ptr(uuid.NewString())
	sub.OrganizerID = ptr(uuid.NewString())

	res, err := svc.Submit(context.Background(), sub, nil)
	if err != nil {
		t.Fatalf("unknown references must not abort intake: %v", err)
	}
	if res.LocationID != nil || res.OrganizerID != nil {
		t.Fatalf("relations = %v %v, want unset", res.LocationID, res.OrganizerID)
	}
	for _, r := range res.Resolutions[:2] {
		if r.Strategy != resolver.StrategyFailed || !strings.Contains(r.Error, "does not exist") {
			t.Fatalf("trace = %+v", r)
		}
	}
	ev, _ := store.Event(res.ID)
	if ev.LocationID != nil || ev.OrganizerID != nil {
		t.Fatalf("stored relations = %v %v", ev.LocationID, ev.OrganizerID)
	}
}

func TestSubmitKeepsRawPayload(t *testing.T) {
	store := testsupport.NewMemStore()
	svc := newService(store)

	raw := json.RawMessage(`{"title":"Jazz Night at the Pabst","extra":"kept"}`)
	res, err := svc.Submit(context.Background(), validSubmission("https://example.com/raw"), raw)
	if err != nil {
		t.Fatal(err)
	}
	ev, _ := store.Event(res.ID)
	if string(ev.RawData) != string(raw) {
		t.Fatalf("raw data = %s", ev.RawData)
	}

	res, err = svc.Submit(context.Background(), validSubmission("https://example.com/raw-2"), nil)
	if err != nil {
		t.Fatal(err)
	}
	ev, _ = store.Event(res.ID)
	var decoded Submission
	if err := json.Unmarshal(ev.RawData, &decoded); err != nil || decoded.SourceURL != "https://example.com/raw-2" {
		t.Fatalf("fallback raw payload %s: %v", ev.RawData, err)
	}
}

func TestSubmitStoreErrors(t *testing.T) {
	store := testsupport.NewMemStore()
	store.FindEventErr = errors.New("connection reset")
	svc := newService(store)

	_, err := svc.Submit(context.Background(), validSubmission("https://example.com/e"), nil)
	var dup *DuplicateError
	var verr *ValidationError
	if err == nil || errors.As(err, &dup) || errors.As(err, &verr) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

type notifierFunc func(ctx context.Context, e domain.Event) error

func (f notifierFunc) NotifyPending(ctx context.Context, e domain.Event) error { return f(ctx, e) }

func TestSubmitNotifiesReviewers(t *testing.T) {
	store := testsupport.NewMemStore()
	got := make(chan domain.Event, 1)
	svc := newService(store).WithNotifier(notifierFunc(func(_ context.Context, e domain.Event) error {
		got <- e
		return errors.New("telegram down")
	}))

	res, err := svc.Submit(context.Background(), validSubmission("https://example.com/notify"), nil)
	if err != nil {
		t.Fatalf("notifier failure must not fail intake: %v", err)
	}

	select {
	case e := <-got:
		if e.ID != res.ID {
			t.Fatalf("notified about %s, want %s", e.ID, res.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notifier not called")
	}
}
