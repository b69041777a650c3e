// Package migration copies externally hosted event media into owned storage.
//
// A slot is eligible when it is not hosted, its URL is outside the owned
// namespace and the URL classifier recognises it as an image. Each slot moves
// from external to hosted in a single conditional write or stays untouched,
// so failed slots are retried by the next run.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/metrics"
	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/urlclassifier"
	"eventsPipeline/internal/utils/logger/sl"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	minPageSize   = 50
	notifyTimeout = 15 * time.Second
)

var ErrInvalidRequest = errors.New("invalid migration request")

type EventStore interface {
	FindEventsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Event, error)
	ListUnhostedEvents(ctx context.Context, limit, offset int) ([]domain.Event, error)
	MarkSlotHosted(ctx context.Context, eventID uuid.UUID, kind domain.SlotKind, expectedURL string, slot domain.MediaSlot) error
}

type ObjectStore interface {
	Ready(ctx context.Context) error
	Put(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Asset, error)
}

type Notifier interface {
	NotifyMigration(ctx context.Context, summary Summary) error
}

// Request selects events by explicit IDs, or all eligible events up to Limit.
// A zero Limit means the configured default for runs and no limit for previews.
type Request struct {
	EventIDs []uuid.UUID
	All      bool
	Limit    int
	DryRun   bool
}

type Worker struct {
	log          *slog.Logger
	store        EventStore
	objects      ObjectStore
	fetcher      Fetcher
	classifier   *urlclassifier.Classifier
	notifier     Notifier
	metrics      *metrics.Metrics
	concurrency  int
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

func NewWorker(
	log *slog.Logger,
	store EventStore,
	objects ObjectStore,
	fetcher Fetcher,
	classifier *urlclassifier.Classifier,
	cfg config.MigrationConfig,
	m *metrics.Metrics,
) *Worker {
	w := &Worker{
		log:          log,
		store:        store,
		objects:      objects,
		fetcher:      fetcher,
		classifier:   classifier,
		metrics:      m,
		concurrency:  max(cfg.Concurrency, 1),
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		now:          time.Now,
	}
	if w.defaultLimit <= 0 {
		w.defaultLimit = minPageSize
	}
	if w.maxLimit < w.defaultLimit {
		w.maxLimit = w.defaultLimit
	}
	return w
}

// WithNotifier sets the notifier told about finished runs.
func (w *Worker) WithNotifier(n Notifier) *Worker {
	w.notifier = n
	return w
}

// Preview computes the eligible set without any network or storage operation.
func (w *Worker) Preview(ctx context.Context, req Request) (Preview, error) {
	op := "migration.Worker.Preview()"

	req, err := w.normalize(req, true)
	if err != nil {
		return Preview{}, fmt.Errorf("%s: %w", op, err)
	}
	events, notFound, truncated, err := w.selectEvents(ctx, req)
	if err != nil {
		return Preview{}, fmt.Errorf("%s: %w", op, err)
	}
	p := w.plan(events)
	p.NotFound = notFound
	p.Limit, p.Truncated = req.Limit, truncated
	return p, nil
}

// Run migrates eligible slots of the selected events. A dry run returns the
// preview only. A storage configuration problem aborts the whole run with
// domain.ErrConfiguration; any per-slot failure is recorded and skipped.
func (w *Worker) Run(ctx context.Context, req Request) (Report, error) {
	op := "migration.Worker.Run()"
	log := w.log.With(slog.String("op", op))

	req, err := w.normalize(req, false)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}

	if !req.DryRun {
		if err := w.checkStorage(ctx); err != nil {
			log.Error("storage not configured, migration aborted", sl.Err(err))
			return Report{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	events, notFound, truncated, err := w.selectEvents(ctx, req)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}
	plan := w.plan(events)
	plan.NotFound = notFound
	plan.Limit, plan.Truncated = req.Limit, truncated

	if req.DryRun {
		log.Info("dry run", slog.Int("events", len(plan.Candidates)), slog.Int("slots", plan.EligibleSlots))
		return Report{DryRun: true, NotFound: notFound, Limit: req.Limit, Truncated: truncated, Preview: &plan}, nil
	}

	started := w.now()
	perEvent := make([][]SlotOutcome, len(plan.Candidates))

	// Events not started before ctx is done get no outcomes.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, c := range plan.Candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perEvent[i] = w.migrateEvent(ctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("migration interrupted", sl.Err(err))
	}

	outcomes, summary := Summarize(perEvent)
	w.metrics.MigrationRun(w.now().Sub(started))

	log.Info("migration finished",
		slog.Int("events", summary.Events),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("notFound", len(notFound)),
	)
	w.notify(summary)

	return Report{Outcomes: outcomes, Summary: summary, NotFound: notFound, Limit: req.Limit, Truncated: truncated}, nil
}

func (w *Worker) checkStorage(ctx context.Context) error {
	if w.classifier.Namespace() == "" {
		return fmt.Errorf("%w: owned storage namespace is empty; set storage.publicBaseURL and storage.bucket", domain.ErrConfiguration)
	}
	return w.objects.Ready(ctx)
}

// normalize validates req and resolves its limit. Previews of all events
// without a limit scan the whole eligible set.
func (w *Worker) normalize(req Request, preview bool) (Request, error) {
	switch {
	case len(req.EventIDs) > 0 && req.All:
		return req, fmt.Errorf("%w: event_ids and all are mutually exclusive", ErrInvalidRequest)
	case len(req.EventIDs) == 0 && !req.All:
		return req, fmt.Errorf("%w: either event_ids or all is required", ErrInvalidRequest)
	case len(req.EventIDs) > w.maxLimit:
		return req, fmt.Errorf("%w: at most %d event_ids per run", ErrInvalidRequest, w.maxLimit)
	case req.Limit < 0:
		return req, fmt.Errorf("%w: limit must not be negative", ErrInvalidRequest)
	case req.Limit > w.maxLimit:
		return req, fmt.Errorf("%w: limit %d exceeds the maximum of %d", ErrInvalidRequest, req.Limit, w.maxLimit)
	}

	if req.All {
		if req.Limit == 0 && !preview {
			req.Limit = w.defaultLimit
		}
		return req, nil
	}
	req.Limit = 0

	seen := make(map[uuid.UUID]struct{}, len(req.EventIDs))
	ids := make([]uuid.UUID, 0, len(req.EventIDs))
	for _, id := range req.EventIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	req.EventIDs = ids
	return req, nil
}

// selectEvents loads the events of req. In all mode it also reports whether
// eligible events beyond req.Limit were left out.
func (w *Worker) selectEvents(ctx context.Context, req Request) ([]domain.Event, []uuid.UUID, bool, error) {
	if !req.All {
		events, err := w.store.FindEventsByIDs(ctx, req.EventIDs)
		if err != nil {
			return nil, nil, false, fmt.Errorf("load events: %w", err)
		}
		found := make(map[uuid.UUID]struct{}, len(events))
		for _, e := range events {
			found[e.ID] = struct{}{}
		}
		var notFound []uuid.UUID
		for _, id := range req.EventIDs {
			if _, ok := found[id]; !ok {
				notFound = append(notFound, id)
			}
		}
		return events, notFound, false, nil
	}

	// Unhosted events whose slots are all ineligible stay in the listing, so page past them.
	pageSize := max(req.Limit, minPageSize)
	var (
		selected  []domain.Event
		truncated bool
	)
	for offset := 0; !truncated; offset += pageSize {
		page, err := w.store.ListUnhostedEvents(ctx, pageSize, offset)
		if err != nil {
			return nil, nil, false, fmt.Errorf("list unhosted events: %w", err)
		}
		for _, e := range page {
			if !w.hasEligibleSlot(e) {
				continue
			}
			if req.Limit > 0 && len(selected) == req.Limit {
				truncated = true
				break
			}
			selected = append(selected, e)
		}
		if len(page) < pageSize {
			break
		}
	}
	return selected, nil, truncated, nil
}

func (w *Worker) hasEligibleSlot(e domain.Event) bool {
	for _, kind := range domain.SlotKinds {
		s := e.Slot(kind)
		if w.classifier.Eligible(s.URL, s.Hosted) {
			return true
		}
	}
	return false
}

func (w *Worker) plan(events []domain.Event) Preview {
	p := Preview{
		BySource: make(map[string]int),
		ByStatus: make(map[string]int),
		ByHost:   make(map[string]int),
	}
	for _, e := range events {
		c := Candidate{EventID: e.ID, Title: e.Title, Slug: e.Slug, Status: e.Status, Source: e.Source}
		for _, kind := range domain.SlotKinds {
			s := e.Slot(kind)
			switch {
			case s.Empty() || s.Hosted:
			case w.classifier.IsOwned(s.URL):
				p.Rejected = append(p.Rejected, RejectedSlot{EventID: e.ID, Slot: kind, URL: s.URL,
					Reason: "url is inside owned storage but was not uploaded by the migration"})
			case w.classifier.Eligible(s.URL, s.Hosted):
				host := urlHost(s.URL)
				c.Slots = append(c.Slots, CandidateSlot{Slot: kind, URL: s.URL, Host: host})
				p.ByHost[host]++
			default:
				p.Rejected = append(p.Rejected, RejectedSlot{EventID: e.ID, Slot: kind, URL: s.URL,
					Reason: w.classifier.Explain(s.URL)})
			}
		}
		if len(c.Slots) == 0 {
			continue
		}
		p.Candidates = append(p.Candidates, c)
		p.EligibleSlots += len(c.Slots)
		p.BySource[string(e.Source)]++
		p.ByStatus[string(e.Status)]++
	}
	return p
}

// migrateEvent processes the slots of one event in order.
func (w *Worker) migrateEvent(ctx context.Context, c Candidate) []SlotOutcome {
	outcomes := make([]SlotOutcome, 0, len(c.Slots))
	for _, s := range c.Slots {
		o := w.migrateSlot(ctx, c.EventID, s)
		w.metrics.MigrationSlot(string(s.Slot), o.Success)
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func (w *Worker) migrateSlot(ctx context.Context, eventID uuid.UUID, s CandidateSlot) SlotOutcome {
	op := "migration.Worker.migrateSlot()"
	log := w.log.With(
		slog.String("op", op),
		slog.String("eventID", eventID.String()),
		slog.String("slot", string(s.Slot)),
	)

	asset, err := w.fetcher.Fetch(ctx, s.URL)
	if err != nil {
		log.Warn("download failed", slog.String("url", s.URL), sl.Err(err))
		return failed(eventID, s.Slot, s.URL, err)
	}
	w.metrics.DownloadSize(len(asset.Data))

	objectPath := fmt.Sprintf("events/%s/%s-%d%s", eventID, s.Slot, w.now().UnixNano(), asset.Extension)
	publicURL, err := w.objects.Put(ctx, objectPath, asset.ContentType, asset.Data)
	if err != nil {
		log.Warn("upload failed", slog.String("path", objectPath), sl.Err(err))
		return failed(eventID, s.Slot, s.URL, fmt.Errorf("upload: %w", err))
	}

	err = w.store.MarkSlotHosted(ctx, eventID, s.Slot, s.URL, domain.MediaSlot{URL: publicURL, StoragePath: objectPath})
	if err != nil {
		if delErr := w.objects.Delete(ctx, objectPath); delErr != nil {
			log.Error("failed to remove orphaned object", slog.String("path", objectPath), sl.Err(delErr))
		}
		if errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("slot changed or event deleted during migration: %w", err)
		}
		log.Warn("write back failed", sl.Err(err))
		return failed(eventID, s.Slot, s.URL, err)
	}

	log.Debug("slot hosted", slog.String("url", publicURL))
	return succeeded(eventID, s.Slot, s.URL, publicURL)
}

func (w *Worker) notify(summary Summary) {
	if w.notifier == nil || summary.Slots == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := w.notifier.NotifyMigration(ctx, summary); err != nil {
			w.log.Warn("failed to send migration summary", sl.Err(err))
		}
	}()
}

func urlHost(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
