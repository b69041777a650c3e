package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/orchestrator"
	"eventsPipeline/internal/scraper"
	"eventsPipeline/internal/testsupport"
	"eventsPipeline/internal/transport/httpServer/handlers/dto"
	"eventsPipeline/internal/urlclassifier"
)

type fakeCollector struct {
	sites []config.SiteConfig
}

func (f *fakeCollector) Sites(names ...string) ([]config.SiteConfig, error) {
	if len(names) == 0 {
		return f.sites, nil
	}
	var out []config.SiteConfig
	for _, n := range names {
		found := false
		for _, s := range f.sites {
			if s.Name == n {
				out = append(out, s)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", orchestrator.ErrUnknownSite, n)
		}
	}
	return out, nil
}

func (f *fakeCollector) Collect(_ context.Context, sites []config.SiteConfig) []scraper.Report {
	out := make([]scraper.Report, len(sites))
	for i, s := range sites {
		out[i] = scraper.Report{Site: s.Name, URL: s.URL, Scraped: 2, Created: 1, Duplicates: 1}
	}
	return out
}

func TestCollectorRun(t *testing.T) {
	c := &fakeCollector{sites: []config.SiteConfig{
		{Name: "lococlub", URL: "https://lococlub.example/agenda"},
		{Name: "other", URL: "https://other.example"},
	}}
	h := NewCollectorHandler(testsupport.DiscardLogger(), c, urlclassifier.New(""))

	cases := []struct {
		body   string
		status int
		sites  int
	}{
		{body: "", status: http.StatusOK, sites: 2},
		{body: `{"sites":["lococlub"]}`, status: http.StatusOK, sites: 1},
		{body: `{"sites":["missing"]}`, status: http.StatusBadRequest},
		{body: `{"sites":`, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Run(rec, httptest.NewRequest(http.MethodPost, "/collector/runs", strings.NewReader(tc.body)))
		if rec.Code != tc.status {
			t.Fatalf("%q: status = %d, want %d", tc.body, rec.Code, tc.status)
		}
		if tc.status != http.StatusOK {
			continue
		}
		var reports []dto.CollectorReportResponse
		if err := json.NewDecoder(rec.Body).Decode(&reports); err != nil {
			t.Fatal(err)
		}
		if len(reports) != tc.sites || reports[0].Created != 1 {
			t.Fatalf("%q: reports = %+v", tc.body, reports)
		}
	}
}

func TestClassify(t *testing.T) {
	h := NewCollectorHandler(testsupport.DiscardLogger(), &fakeCollector{}, urlclassifier.New("https://media.example.com/events"))

	cases := []struct {
		url      string
		owned    bool
		eligible bool
	}{
		{url: "https://cdn.example.com/poster.jpg", eligible: true},
		{url: "https://media.example.com/events/events/1/hero.jpg", owned: true},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Classify(rec, httptest.NewRequest(http.MethodGet, "/classify?url="+tc.url, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp dto.ClassifyResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Owned != tc.owned || resp.Eligible != tc.eligible {
			t.Fatalf("%s: %+v", tc.url, resp)
		}
	}

	rec := httptest.NewRecorder()
	h.Classify(rec, httptest.NewRequest(http.MethodGet, "/classify", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty url status = %d", rec.Code)
	}
}
