package handlers

import (
	"context"
	"encoding/json"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/intake"
	"eventsPipeline/internal/migration"
	"eventsPipeline/internal/scraper"
)

// IntakeService accepts collector submissions.
type IntakeService interface {
	Submit(ctx context.Context, sub intake.Submission, raw json.RawMessage) (intake.Result, error)
}

// MigrationService previews and runs media migrations.
type MigrationService interface {
	Preview(ctx context.Context, req migration.Request) (migration.Preview, error)
	Run(ctx context.Context, req migration.Request) (migration.Report, error)
}

// Collector runs the built-in site scrapers.
type Collector interface {
	Sites(names ...string) ([]config.SiteConfig, error)
	Collect(ctx context.Context, sites []config.SiteConfig) []scraper.Report
}
