package dto

import (
	"eventsPipeline/internal/scraper"
	"eventsPipeline/internal/urlclassifier"

	"github.com/google/uuid"
)

type CollectorRunRequest struct {
	Sites []string `json:"sites"`
}

type CollectorReportResponse struct {
	RequestID  uuid.UUID `json:"request_id"`
	Site       string    `json:"site"`
	URL        string    `json:"url"`
	Scraped    int       `json:"scraped"`
	Created    int       `json:"created"`
	Duplicates int       `json:"duplicates"`
	Invalid    int       `json:"invalid"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

type ClassifyResponse struct {
	URL      string `json:"url"`
	Kind     string `json:"kind"`
	Owned    bool   `json:"owned"`
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

func MapCollectorReports(reports []scraper.Report) []CollectorReportResponse {
	out := make([]CollectorReportResponse, len(reports))
	for i, r := range reports {
		out[i] = CollectorReportResponse{
			RequestID:  r.RequestID,
			Site:       r.Site,
			URL:        r.URL,
			Scraped:    r.Scraped,
			Created:    r.Created,
			Duplicates: r.Duplicates,
			Invalid:    r.Invalid,
			Failed:     r.Failed,
			Error:      r.Error,
		}
	}
	return out
}

func MapClassification(c *urlclassifier.Classifier, rawURL string) ClassifyResponse {
	return ClassifyResponse{
		URL:      rawURL,
		Kind:     string(c.Classify(rawURL)),
		Owned:    c.IsOwned(rawURL),
		Eligible: c.Eligible(rawURL, false),
		Reason:   c.Explain(rawURL),
	}
}
