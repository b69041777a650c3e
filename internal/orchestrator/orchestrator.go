// Package orchestrator runs built-in collector jobs for configured sites and
// waits for their reports.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/scraper"
	"eventsPipeline/internal/utils/logger/sl"

	"github.com/google/uuid"
)

var ErrUnknownSite = errors.New("site is not configured")

type Scraper interface {
	AddJob(requestID uuid.UUID, siteName string, url string) (<-chan scraper.Report, error)
}

type Orchestrator struct {
	logger  *slog.Logger
	sites   []config.SiteConfig
	scraper Scraper
}

func New(logger *slog.Logger, cfg config.ScraperConfig, s Scraper) *Orchestrator {
	op := "Orchestrator.New()"
	log := logger.With(slog.String("op", op))
	log.Info("creating orchestrator", slog.Int("sites", len(cfg.Sites)))

	return &Orchestrator{
		logger:  logger,
		sites:   cfg.Sites,
		scraper: s,
	}
}

// Sites returns the configured sites, limited to names when given.
func (o *Orchestrator) Sites(names ...string) ([]config.SiteConfig, error) {
	if len(names) == 0 {
		return o.sites, nil
	}
	byName := make(map[string]config.SiteConfig, len(o.sites))
	for _, s := range o.sites {
		byName[s.Name] = s
	}
	out := make([]config.SiteConfig, 0, len(names))
	for _, n := range names {
		s, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSite, n)
		}
		out = append(out, s)
	}
	return out, nil
}

// Collect queues one job per site and waits until every job reports or ctx is done.
// Sites that could not be queued are reported with their error.
func (o *Orchestrator) Collect(ctx context.Context, sites []config.SiteConfig) []scraper.Report {
	op := "Orchestrator.Collect()"
	log := o.logger.With(slog.String("op", op))

	reports := make([]scraper.Report, len(sites))
	var wg sync.WaitGroup

	for i, site := range sites {
		requestID := uuid.New()
		reports[i] = scraper.Report{RequestID: requestID, Site: site.Name, URL: site.URL}

		done, err := o.scraper.AddJob(requestID, site.Name, site.URL)
		if err != nil {
			log.Error("failed to add job", slog.String("siteName", site.Name), slog.String("url", site.URL), sl.Err(err))
			reports[i].Error = err.Error()
			continue
		}
		log.Debug("job added", slog.String("requestID", requestID.String()), slog.String("siteName", site.Name))

		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case r, ok := <-done:
				if ok {
					reports[i] = r
				}
			case <-ctx.Done():
				reports[i].Error = ctx.Err().Error()
			}
		}()
	}

	log.Info("waiting for scraper jobs", slog.Int("count", len(sites)))
	wg.Wait()
	log.Info("all scraper jobs completed")

	return reports
}
