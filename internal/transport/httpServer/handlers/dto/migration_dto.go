package dto

import (
	"fmt"

	"eventsPipeline/internal/migration"

	"github.com/google/uuid"
)

type MigrationRequest struct {
	EventIDs []string `json:"event_ids"`
	All      bool     `json:"all"`
	Limit    int      `json:"limit"`
	DryRun   bool     `json:"dry_run"`
}

type SlotOutcomeResponse struct {
	EventID     uuid.UUID `json:"event_id"`
	Slot        string    `json:"slot"`
	OriginalURL string    `json:"original_url"`
	NewURL      *string   `json:"new_url"`
	Success     bool      `json:"success"`
	Error       *string   `json:"error"`
}

type SummaryResponse struct {
	Events    int `json:"events"`
	Slots     int `json:"slots"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type MigrationResponse struct {
	DryRun    bool                  `json:"dry_run"`
	Summary   SummaryResponse       `json:"summary"`
	Outcomes  []SlotOutcomeResponse `json:"outcomes"`
	NotFound  []uuid.UUID           `json:"not_found"`
	Limit     int                   `json:"limit,omitempty"`
	Truncated bool                  `json:"truncated"`
	Preview   *PreviewResponse      `json:"preview,omitempty"`
}

type CandidateSlotResponse struct {
	Slot string `json:"slot"`
	URL  string `json:"url"`
	Host string `json:"host"`
}

type CandidateResponse struct {
	EventID uuid.UUID               `json:"event_id"`
	Title   string                  `json:"title"`
	Slug    string                  `json:"slug"`
	Status  string                  `json:"status"`
	Source  string                  `json:"source"`
	Slots   []CandidateSlotResponse `json:"slots"`
}

type RejectedSlotResponse struct {
	EventID uuid.UUID `json:"event_id"`
	Slot    string    `json:"slot"`
	URL     string    `json:"url"`
	Reason  string    `json:"reason"`
}

type PreviewResponse struct {
	EligibleEvents int                    `json:"eligible_events"`
	EligibleSlots  int                    `json:"eligible_slots"`
	BySource       map[string]int         `json:"by_source"`
	ByStatus       map[string]int         `json:"by_status"`
	ByHost         map[string]int         `json:"by_host"`
	Candidates     []CandidateResponse    `json:"candidates"`
	Rejected       []RejectedSlotResponse `json:"rejected"`
	NotFound       []uuid.UUID            `json:"not_found"`
	Limit          int                    `json:"limit,omitempty"`
	Truncated      bool                   `json:"truncated"`
}

// MapMigrationRequest parses event IDs; invalid IDs are returned as an error naming them.
func MapMigrationRequest(req MigrationRequest) (migration.Request, error) {
	out := migration.Request{All: req.All, Limit: req.Limit, DryRun: req.DryRun}
	for _, raw := range req.EventIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return migration.Request{}, fmt.Errorf("invalid event id %q", raw)
		}
		out.EventIDs = append(out.EventIDs, id)
	}
	return out, nil
}

func MapReport(r migration.Report) MigrationResponse {
	outcomes := make([]SlotOutcomeResponse, len(r.Outcomes))
	for i, o := range r.Outcomes {
		outcomes[i] = SlotOutcomeResponse{
			EventID:     o.EventID,
			Slot:        string(o.Slot),
			OriginalURL: o.OriginalURL,
			Success:     o.Success,
			NewURL:      optional(o.NewURL),
			Error:       optional(o.Error),
		}
	}
	resp := MigrationResponse{
		DryRun: r.DryRun,
		Summary: SummaryResponse{
			Events:    r.Summary.Events,
			Slots:     r.Summary.Slots,
			Succeeded: r.Summary.Succeeded,
			Failed:    r.Summary.Failed,
		},
		Outcomes:  outcomes,
		NotFound:  nonNil(r.NotFound),
		Limit:     r.Limit,
		Truncated: r.Truncated,
	}
	if r.Preview != nil {
		p := MapPreview(*r.Preview)
		resp.Preview = &p
	}
	return resp
}

func MapPreview(p migration.Preview) PreviewResponse {
	candidates := make([]CandidateResponse, len(p.Candidates))
	for i, c := range p.Candidates {
		slots := make([]CandidateSlotResponse, len(c.Slots))
		for j, s := range c.Slots {
			slots[j] = CandidateSlotResponse{Slot: string(s.Slot), URL: s.URL, Host: s.Host}
		}
		candidates[i] = CandidateResponse{
			EventID: c.EventID,
			Title:   c.Title,
			Slug:    c.Slug,
			Status:  string(c.Status),
			Source:  string(c.Source),
			Slots:   slots,
		}
	}
	rejected := make([]RejectedSlotResponse, len(p.Rejected))
	for i, r := range p.Rejected {
		rejected[i] = RejectedSlotResponse{EventID: r.EventID, Slot: string(r.Slot), URL: r.URL, Reason: r.Reason}
	}
	return PreviewResponse{
		EligibleEvents: len(p.Candidates),
		EligibleSlots:  p.EligibleSlots,
		BySource:       p.BySource,
		ByStatus:       p.ByStatus,
		ByHost:         p.ByHost,
		Candidates:     candidates,
		Rejected:       rejected,
		NotFound:       nonNil(p.NotFound),
		Limit:          p.Limit,
		Truncated:      p.Truncated,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
