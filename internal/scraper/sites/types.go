package sites

import (
	"context"

	"eventsPipeline/internal/intake"
)

// ScrapeFunc scrapes one listing URL and returns the events found there as
// intake submissions. Per-event parse problems are skipped, not returned.
type ScrapeFunc func(ctx context.Context, url string, shutdownChan <-chan struct{}) ([]intake.Submission, error)
