package sites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"eventsPipeline/internal/intake"

	"github.com/PuerkitoBio/goquery"
	"github.com/geziyor/geziyor"
	"github.com/geziyor/geziyor/client"
)

const (
	lococlubVenue    = "Loco Club"
	lococlubCity     = "Valencia"
	lococlubTimezone = "Europe/Madrid"
)

var (
	pricePattern      = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	errMissingTitle   = errors.New("event page has no title")
	errMissingStartAt = errors.New("event page has no parseable date")
)

// ScrapeLococlub scrapes the lococlub.es agenda.
func ScrapeLococlub(ctx context.Context, baseURL string, shutdownChan <-chan struct{}) ([]intake.Submission, error) {
	var (
		links []string
		mu    sync.Mutex
	)

	collectLinksGez := geziyor.NewGeziyor(&geziyor.Options{
		StartURLs: []string{baseURL},
		ParseFunc: func(g *geziyor.Geziyor, r *client.Response) {
			found := parseLococlubLinks(r.HTMLDoc, r.Request.URL)
			mu.Lock()
			links = append(links, found...)
			mu.Unlock()
		},
		LogDisabled: true,
	})
	collectLinksGez.Start()
	links = uniqueStrings(links)

	tz, err := time.LoadLocation(lococlubTimezone)
	if err != nil {
		tz = time.UTC
	}

	var submissions []intake.Submission
	for _, link := range links {
		select {
		case <-ctx.Done():
			return submissions, ctx.Err()
		case <-shutdownChan:
			return submissions, fmt.Errorf("shutdown")
		default:
		}

		var (
			sub      intake.Submission
			parseErr error
		)
		gez := geziyor.NewGeziyor(&geziyor.Options{
			StartURLs: []string{link},
			ParseFunc: func(g *geziyor.Geziyor, r *client.Response) {
				sub, parseErr = parseLococlubEvent(r.HTMLDoc, link, tz)
			},
			LogDisabled: true,
		})
		gez.Start()

		if parseErr != nil || sub.Title == "" {
			continue
		}
		submissions = append(submissions, sub)
	}

	return submissions, nil
}

func parseLococlubLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	doc.Find("article.mec-event-article a.mec-color-hover").Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		absoluteURL, err := base.Parse(href)
		if err == nil {
			links = append(links, absoluteURL.String())
		}
	})
	return links
}

func parseLococlubEvent(doc *goquery.Document, link string, tz *time.Location) (intake.Submission, error) {
	sub := intake.Submission{SourceURL: link}

	title := doc.Find("h1.mec-single-title").Text()
	if strings.TrimSpace(title) == "" {
		title = doc.Find(".mec-single-event-title").Text()
	}
	sub.Title = collapseSpaces(title)
	if sub.Title == "" {
		return sub, errMissingTitle
	}

	descSelection := doc.Find(".mec-single-event-description").Clone()
	descSelection.Find("script").Remove()
	if desc := collapseSpaces(descSelection.Text()); desc != "" {
		sub.Description = &desc
	}

	if src, ok := doc.Find(".mec-events-event-image img").Attr("src"); ok && strings.TrimSpace(src) != "" {
		src = strings.TrimSpace(src)
		sub.ImageURL = &src
	}

	dateStr := strings.TrimSpace(doc.Find(".mec-single-event-date .mec-start-date-label").Text())
	timeStr := strings.TrimSpace(doc.Find(".mec-single-event-time .mec-events-abbr").First().Text())
	start, ok := parseLococlubStart(dateStr, timeStr, tz)
	if !ok {
		return sub, errMissingStartAt
	}
	sub.StartAt = start.Format(time.RFC3339)

	priceText := doc.Find(".mec-event-cost").Text()
	if strings.TrimSpace(priceText) == "" {
		priceText = doc.Find("dd.mec-events-event-cost").Text()
	}
	applyPrice(&sub, priceText)

	venue, city := lococlubVenue, lococlubCity
	sub.Location = &intake.LocationPayload{Name: venue, City: &city}

	raw := map[string]string{"site": "lococlub"}
	if buyLink, ok := doc.Find(".mec-booking-button").Attr("href"); ok {
		raw["ticket_url"] = buyLink
	}
	if video := findVideo(doc); video != "" {
		raw["video_url"] = video
	}
	if b, err := json.Marshal(raw); err == nil {
		sub.RawData = b
	}

	return sub, nil
}

func parseLococlubStart(dateStr, timeStr string, tz *time.Location) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("02 Jan 2006", dateStr, tz)
	if err != nil {
		return time.Time{}, false
	}
	if parts := strings.Split(timeStr, ":"); len(parts) == 2 {
		hour, errH := strconv.Atoi(strings.TrimSpace(parts[0]))
		minute, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errH == nil && errM == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, tz)
		}
	}
	return t, true
}

// applyPrice maps "Gratis", "12€" or "10 - 15 €" onto the price fields.
func applyPrice(sub *intake.Submission, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "gratis") || strings.Contains(lower, "free") {
		pt := "free"
		sub.PriceType = &pt
		return
	}

	var prices []float64
	for _, m := range pricePattern.FindAllString(text, -1) {
		if p, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64); err == nil {
			prices = append(prices, p)
		}
	}
	switch len(prices) {
	case 0:
		return
	case 1:
		pt := "fixed"
		sub.PriceType, sub.PriceLow = &pt, &prices[0]
	default:
		low, high := prices[0], prices[0]
		for _, p := range prices[1:] {
			low, high = min(low, p), max(high, p)
		}
		pt := "range"
		sub.PriceType, sub.PriceLow, sub.PriceHigh = &pt, &low, &high
	}
}

func findVideo(doc *goquery.Document) string {
	for _, sel := range []string{
		`.mec-single-event-description iframe[src*="youtube"]`,
		`.mec-single-event-description iframe[src*="vimeo"]`,
		`.mec-single-event-description video source`,
		`.mec-single-event-description video`,
	} {
		if src, ok := doc.Find(sel).Attr("src"); ok {
			return src
		}
	}
	return ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func uniqueStrings(input []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, v := range input {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}
