package intake

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	minTitleLen = 3
	maxTitleLen = 200

	dateLayout = "2006-01-02"
)

// localLayouts are ISO-8601 timestamps without an offset, read in the intake default zone.
var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

const (
	RuleRequired = "required"
	RuleLength   = "length"
	RuleFormat   = "format"
	RuleRange    = "range"
	RuleOrder    = "order"
)

// validated holds the parsed form of a submission that passed validation.
type validated struct {
	title       string
	startAt     time.Time
	endAt       *time.Time
	eventDate   *time.Time
	sourceURL   string
	categoryID  *uuid.UUID
	locationID  *uuid.UUID
	organizerID *uuid.UUID
}

type violations []Violation

func (v *violations) add(field, rule, format string, args ...any) {
	*v = append(*v, Violation{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// validate checks every rule and reports all violations at once. Timestamps
// without an offset are interpreted in loc.
func validate(sub Submission, loc *time.Location) (validated, error) {
	var (
		out  validated
		errs violations
	)

	out.title = strings.TrimSpace(sub.Title)
	switch n := utf8.RuneCountInString(out.title); {
	case n == 0:
		errs.add("title", RuleRequired, "title is required")
	case n < minTitleLen || n > maxTitleLen:
		errs.add("title", RuleLength, "title must be %d-%d characters, got %d", minTitleLen, maxTitleLen, n)
	}

	startOK := false
	if s := strings.TrimSpace(sub.StartAt); s == "" {
		errs.add("start_at", RuleRequired, "start_at is required")
	} else if t, ok := parseTimestamp(s, loc); !ok {
		errs.add("start_at", RuleFormat, "start_at must be an ISO-8601 timestamp, e.g. 2024-05-01T19:30:00-05:00 or 2024-05-01T19:30")
	} else {
		out.startAt, startOK = t, true
	}

	out.sourceURL = strings.TrimSpace(sub.SourceURL)
	if out.sourceURL == "" {
		errs.add("source_url", RuleRequired, "source_url is required")
	} else if !isHTTPURL(out.sourceURL) {
		errs.add("source_url", RuleFormat, "source_url must be an absolute http(s) URL")
	}

	if s := strings.TrimSpace(deref(sub.EndAt)); s != "" {
		t, ok := parseTimestamp(s, loc)
		switch {
		case !ok:
			errs.add("end_at", RuleFormat, "end_at must be an ISO-8601 timestamp")
		case startOK && t.Before(out.startAt):
			errs.add("end_at", RuleOrder, "end_at must not be before start_at")
		default:
			out.endAt = &t
		}
	}

	if s := strings.TrimSpace(deref(sub.EventDate)); s != "" {
		if d, err := time.Parse(dateLayout, s); err != nil {
			errs.add("event_date", RuleFormat, "event_date must be YYYY-MM-DD")
		} else {
			out.eventDate = &d
		}
	}

	if sub.PriceLow != nil && *sub.PriceLow < 0 {
		errs.add("price_low", RuleRange, "price_low must not be negative")
	}
	if sub.PriceHigh != nil && *sub.PriceHigh < 0 {
		errs.add("price_high", RuleRange, "price_high must not be negative")
	}
	if sub.PriceLow != nil && sub.PriceHigh != nil && *sub.PriceLow > *sub.PriceHigh {
		errs.add("price_high", RuleOrder, "price_high must not be below price_low")
	}

	out.categoryID = parseRef(&errs, "category_id", sub.CategoryID)
	out.locationID = parseRef(&errs, "location_id", sub.LocationID)
	out.organizerID = parseRef(&errs, "organizer_id", sub.OrganizerID)

	if out.locationID == nil && sub.Location != nil && strings.TrimSpace(sub.Location.Name) == "" {
		errs.add("location.name", RuleRequired, "inline location requires a name")
	}
	if out.organizerID == nil && sub.Organizer != nil && strings.TrimSpace(sub.Organizer.Name) == "" {
		errs.add("organizer.name", RuleRequired, "inline organizer requires a name")
	}

	if len(errs) > 0 {
		return validated{}, &ValidationError{Violations: errs}
	}
	return out, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseRef(errs *violations, field string, raw *string) *uuid.UUID {
	s := strings.TrimSpace(deref(raw))
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		errs.add(field, RuleFormat, "%s must be a UUID", field)
		return nil
	}
	return &id
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
