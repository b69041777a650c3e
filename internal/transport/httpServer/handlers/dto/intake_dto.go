package dto

import (
	"eventsPipeline/internal/intake"
	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/resolver"

	"github.com/google/uuid"
)

// IntakeRequest is the collector's submission body. Audience may be sent as
// a single string or a list.
type IntakeRequest struct {
	intake.Submission
	Audience FlexibleStringSlice `json:"audience,omitempty"`
}

type ResolutionResponse struct {
	Entity   string     `json:"entity"`
	ID       *uuid.UUID `json:"id"`
	Strategy string     `json:"strategy"`
	Score    float64    `json:"score,omitempty"`
	Error    string     `json:"error,omitempty"`
}

type IntakeResponse struct {
	ID          uuid.UUID            `json:"id"`
	Slug        string               `json:"slug"`
	Status      string               `json:"status"`
	LocationID  *uuid.UUID           `json:"location_id"`
	OrganizerID *uuid.UUID           `json:"organizer_id"`
	CategoryID  *uuid.UUID           `json:"category_id"`
	Resolutions []ResolutionResponse `json:"resolutions"`
}

type ExistingEventResponse struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Slug   string    `json:"slug"`
	Status string    `json:"status"`
}

type DuplicateResponse struct {
	Error    string                `json:"error"`
	Existing ExistingEventResponse `json:"existing"`
}

type ValidationResponse struct {
	Error      string             `json:"error"`
	Violations []intake.Violation `json:"violations"`
}

func MapIntakeRequestToSubmission(req IntakeRequest) intake.Submission {
	sub := req.Submission
	sub.Audience = []string(req.Audience)
	return sub
}

func MapResultToIntakeResponse(res intake.Result) IntakeResponse {
	resolutions := make([]ResolutionResponse, len(res.Resolutions))
	for i, r := range res.Resolutions {
		resolutions[i] = mapResolution(r)
	}
	return IntakeResponse{
		ID:          res.ID,
		Slug:        res.Slug,
		Status:      string(res.Status),
		LocationID:  res.LocationID,
		OrganizerID: res.OrganizerID,
		CategoryID:  res.CategoryID,
		Resolutions: resolutions,
	}
}

func MapDuplicate(ref domain.EventRef) DuplicateResponse {
	return DuplicateResponse{
		Error: "event with this source_url already exists",
		Existing: ExistingEventResponse{
			ID:     ref.ID,
			Title:  ref.Title,
			Slug:   ref.Slug,
			Status: string(ref.Status),
		},
	}
}

func MapViolations(violations []intake.Violation) ValidationResponse {
	return ValidationResponse{Error: "validation failed", Violations: violations}
}

func mapResolution(r resolver.Resolution) ResolutionResponse {
	return ResolutionResponse{
		Entity:   r.Entity,
		ID:       r.ID,
		Strategy: string(r.Strategy),
		Score:    r.Score,
		Error:    r.Error,
	}
}
