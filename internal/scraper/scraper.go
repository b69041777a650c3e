// Package scraper is the built-in collector: a worker pool that scrapes
// configured sites and submits every event through intake.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/intake"
	"eventsPipeline/internal/scraper/sites"
	"eventsPipeline/internal/utils/logger/sl"

	"github.com/google/uuid"
)

const defaultJobTimeout = 10 * time.Minute

var (
	ErrShuttingDown = errors.New("scraper is shutting down")
	ErrBufferFull   = errors.New("job buffer is full")
	ErrUnknownSite  = errors.New("no scraper registered for site")
)

// Submitter is the intake entry point used for scraped events.
type Submitter interface {
	Submit(ctx context.Context, sub intake.Submission, raw json.RawMessage) (intake.Result, error)
}

// Report summarises one scrape job.
type Report struct {
	RequestID  uuid.UUID
	Site       string
	URL        string
	Scraped    int
	Created    int
	Duplicates int
	Invalid    int
	Failed     int
	Error      string
}

type job struct {
	requestID uuid.UUID
	siteName  string
	url       string
	done      chan Report
}

type Scraper struct {
	logger          *slog.Logger
	cfg             config.ScraperConfig
	submitter       Submitter
	scrapers        map[string]sites.ScrapeFunc
	jobs            chan job
	shutdownChannel chan struct{}
	shutdownOnce    sync.Once
	wg              *sync.WaitGroup
}

func New(logger *slog.Logger, cfg config.ScraperConfig, submitter Submitter) *Scraper {
	op := "Scraper.New()"
	log := logger.With(slog.String("op", op))

	log.Info("creating scraper")

	s := &Scraper{
		logger:          logger,
		cfg:             cfg,
		submitter:       submitter,
		scrapers:        make(map[string]sites.ScrapeFunc),
		jobs:            make(chan job, max(cfg.JobBufferSize, 1)),
		shutdownChannel: make(chan struct{}),
		wg:              &sync.WaitGroup{},
	}

	s.Register("lococlub", sites.ScrapeLococlub)

	return s
}

// Register adds or replaces the scraper for a site name.
func (s *Scraper) Register(siteName string, fn sites.ScrapeFunc) {
	s.scrapers[siteName] = fn
}

// Start runs the workers and blocks until they exit.
func (s *Scraper) Start() {
	op := "Scraper.Start()"
	log := s.logger.With(slog.String("op", op))

	workers := max(s.cfg.WorkersCount, 1)
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.handleJob(i)
	}
	log.Info("scraper service started", slog.Int("workers", workers))

	s.wg.Wait()
}

// AddJob queues a scrape of url with the scraper registered for siteName.
// The returned channel receives the job report once and is then closed.
func (s *Scraper) AddJob(requestID uuid.UUID, siteName string, url string) (<-chan Report, error) {
	if _, ok := s.scrapers[siteName]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, siteName)
	}

	newJob := job{
		requestID: requestID,
		siteName:  siteName,
		url:       url,
		done:      make(chan Report, 1),
	}

	select {
	case <-s.shutdownChannel:
		return nil, ErrShuttingDown
	default:
	}

	select {
	case s.jobs <- newJob:
		return newJob.done, nil
	default:
		return nil, ErrBufferFull
	}
}

func (s *Scraper) handleJob(id int) {
	defer s.wg.Done()
	op := "Scraper.handleJob()"
	log := s.logger.With(
		slog.String("op", op),
		slog.Int("workerId", id),
	)

	log.Debug("start scraper job handler")

	for {
		select {
		case <-s.shutdownChannel:
			return
		case j := <-s.jobs:
			report := s.run(log, j)
			j.done <- report
			close(j.done)
		}
	}
}

func (s *Scraper) run(log *slog.Logger, j job) Report {
	joblog := log.With(
		slog.String("requestID", j.requestID.String()),
		slog.String("siteName", j.siteName),
	)
	report := Report{RequestID: j.requestID, Site: j.siteName, URL: j.url}

	timeout := defaultJobTimeout
	if s.cfg.Timeout > 0 {
		timeout = time.Duration(s.cfg.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	submissions, err := s.scrapers[j.siteName](ctx, j.url, s.shutdownChannel)
	report.Scraped = len(submissions)
	if err != nil {
		joblog.Error("scraping failed", sl.Err(err))
		report.Error = err.Error()
	}

	for _, sub := range submissions {
		_, err := s.submitter.Submit(ctx, sub, nil)

		var (
			dup  *intake.DuplicateError
			verr *intake.ValidationError
		)
		switch {
		case err == nil:
			report.Created++
		case errors.As(err, &dup):
			report.Duplicates++
		case errors.As(err, &verr):
			report.Invalid++
			joblog.Debug("scraped event rejected", slog.String("sourceURL", sub.SourceURL), sl.Err(err))
		default:
			report.Failed++
			joblog.Error("failed to submit scraped event", slog.String("sourceURL", sub.SourceURL), sl.Err(err))
		}
	}

	joblog.Info("scraping completed",
		slog.Int("scraped", report.Scraped),
		slog.Int("created", report.Created),
		slog.Int("duplicates", report.Duplicates),
	)
	return report
}

// Shutdown stops the workers. Queued jobs that were not started are dropped.
func (s *Scraper) Shutdown(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("force exit scraper: %w", ctx.Err())
	default:
		s.shutdownOnce.Do(func() { close(s.shutdownChannel) })
		return nil
	}
}
