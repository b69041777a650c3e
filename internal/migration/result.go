package migration

import (
	"eventsPipeline/internal/models/domain"

	"github.com/google/uuid"
)

// SlotOutcome is the result of migrating one media slot. Build it with
// succeeded or failed so the Success and Error fields stay consistent.
type SlotOutcome struct {
	EventID     uuid.UUID
	Slot        domain.SlotKind
	OriginalURL string
	NewURL      string
	Success     bool
	Error       string
}

func succeeded(eventID uuid.UUID, kind domain.SlotKind, original, newURL string) SlotOutcome {
	return SlotOutcome{EventID: eventID, Slot: kind, OriginalURL: original, NewURL: newURL, Success: true}
}

func failed(eventID uuid.UUID, kind domain.SlotKind, original string, err error) SlotOutcome {
	return SlotOutcome{EventID: eventID, Slot: kind, OriginalURL: original, Error: err.Error()}
}

// Summary aggregates slot outcomes.
type Summary struct {
	Events    int
	Slots     int
	Succeeded int
	Failed    int
}

// Summarize reduces per-event outcome lists into totals.
func Summarize(perEvent [][]SlotOutcome) ([]SlotOutcome, Summary) {
	var (
		all []SlotOutcome
		sum Summary
	)
	for _, outcomes := range perEvent {
		if len(outcomes) == 0 {
			continue
		}
		sum.Events++
		for _, o := range outcomes {
			sum.Slots++
			if o.Success {
				sum.Succeeded++
			} else {
				sum.Failed++
			}
			all = append(all, o)
		}
	}
	return all, sum
}

// Report is the result of a migration run.
type Report struct {
	DryRun   bool
	Outcomes []SlotOutcome
	Summary  Summary
	NotFound []uuid.UUID
	// Limit is the event limit applied in all mode, 0 when none applied.
	Limit int
	// Truncated reports eligible events left out by Limit.
	Truncated bool
	// Preview is set for dry runs.
	Preview *Preview
}

// CandidateSlot is an eligible media slot.
type CandidateSlot struct {
	Slot domain.SlotKind
	URL  string
	Host string
}

// Candidate is an event with at least one eligible slot.
type Candidate struct {
	EventID uuid.UUID
	Title   string
	Slug    string
	Status  domain.EventStatus
	Source  domain.Source
	Slots   []CandidateSlot
}

// RejectedSlot is an unhosted slot the classifier refuses to migrate.
type RejectedSlot struct {
	EventID uuid.UUID
	Slot    domain.SlotKind
	URL     string
	Reason  string
}

// Preview describes what a migration would touch.
type Preview struct {
	Candidates    []Candidate
	Rejected      []RejectedSlot
	EligibleSlots int
	BySource      map[string]int
	ByStatus      map[string]int
	ByHost        map[string]int
	NotFound      []uuid.UUID
	Limit         int
	Truncated     bool
}
