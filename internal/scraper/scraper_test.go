package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/intake"
	"eventsPipeline/internal/testsupport"

	"github.com/google/uuid"
)

type fakeSubmitter struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeSubmitter) Submit(_ context.Context, sub intake.Submission, _ json.RawMessage) (intake.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.TrimSpace(sub.StartAt) == "" {
		return intake.Result{}, &intake.ValidationError{Violations: []intake.Violation{{Field: "start_at", Rule: intake.RuleRequired}}}
	}
	if f.seen[sub.SourceURL] {
		return intake.Result{}, &intake.DuplicateError{}
	}
	if strings.Contains(sub.SourceURL, "broken") {
		return intake.Result{}, errors.New("db down")
	}
	f.seen[sub.SourceURL] = true
	return intake.Result{ID: uuid.New()}, nil
}

func fakeSite(_ context.Context, _ string, _ <-chan struct{}) ([]intake.Submission, error) {
	return []intake.Submission{
		{Title: "One", StartAt: "2024-05-01T20:00:00Z", SourceURL: "https://site.example/1"},
		{Title: "One again", StartAt: "2024-05-01T20:00:00Z", SourceURL: "https://site.example/1"},
		{Title: "No date", SourceURL: "https://site.example/2"},
		{Title: "Broken", StartAt: "2024-05-01T20:00:00Z", SourceURL: "https://site.example/broken"},
	}, nil
}

func TestScraperSubmitsThroughIntake(t *testing.T) {
	s := New(testsupport.DiscardLogger(), config.ScraperConfig{JobBufferSize: 2, WorkersCount: 1, Timeout: 5}, &fakeSubmitter{seen: map[string]bool{}})
	s.Register("fake", fakeSite)
	go s.Start()
	defer s.Shutdown(context.Background())

	done, err := s.AddJob(uuid.New(), "fake", "https://site.example/agenda")
	if err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-done:
		if r.Scraped != 4 || r.Created != 1 || r.Duplicates != 1 || r.Invalid != 1 || r.Failed != 1 {
			t.Fatalf("report = %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}
}

func TestScraperAddJobErrors(t *testing.T) {
	s := New(testsupport.DiscardLogger(), config.ScraperConfig{JobBufferSize: 1, WorkersCount: 1}, &fakeSubmitter{seen: map[string]bool{}})
	s.Register("fake", fakeSite)

	if _, err := s.AddJob(uuid.New(), "nope", "https://x"); !errors.Is(err, ErrUnknownSite) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.AddJob(uuid.New(), "fake", "https://x"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddJob(uuid.New(), "fake", "https://x"); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("err = %v, want full buffer", err)
	}

	s.Shutdown(context.Background())
	if _, err := s.AddJob(uuid.New(), "fake", "https://x"); !errors.Is(err, ErrShuttingDown) {
		t.Fatalf("err = %v, want shutting down", err)
	}
}
