package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"eventsPipeline/internal/intake"
	"eventsPipeline/internal/transport/httpServer/handlers/dto"
)

const defaultMaxBodyBytes = 1 << 20

type IntakeHandler struct {
	service      IntakeService
	maxBodyBytes int64
	log          *slog.Logger
}

func NewIntakeHandler(log *slog.Logger, service IntakeService, maxBodyBytes int64) *IntakeHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &IntakeHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}
}

// Submit handles POST /api/v1/intake/events.
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.IntakeHandler.Submit()"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondViolation(log, w, http.StatusRequestEntityTooLarge, intake.Violation{
				Field:   "body",
				Rule:    intake.RuleLength,
				Message: fmt.Sprintf("body exceeds %d bytes", h.maxBodyBytes),
			})
			return
		}
		respondError(log, fmt.Errorf("cannot read body: %w", err), w, http.StatusBadRequest)
		return
	}

	var req dto.IntakeRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.respondViolation(log, w, http.StatusBadRequest, intake.Violation{
			Field:   "body",
			Rule:    intake.RuleFormat,
			Message: "cannot decode json: " + err.Error(),
		})
		return
	}

	res, err := h.service.Submit(r.Context(), dto.MapIntakeRequestToSubmission(req), body)
	if err != nil {
		var (
			verr *intake.ValidationError
			dup  *intake.DuplicateError
		)
		switch {
		case errors.As(err, &verr):
			log.Info("submission rejected", slog.Int("violations", len(verr.Violations)))
			respond(log, w, http.StatusBadRequest, dto.MapViolations(verr.Violations))
		case errors.As(err, &dup):
			log.Info("duplicate submission", slog.String("existingID", dup.Existing.ID.String()))
			respond(log, w, http.StatusConflict, dto.MapDuplicate(dup.Existing))
		default:
			respondError(log, fmt.Errorf("failed to submit event: %w", err), w, http.StatusInternalServerError)
		}
		return
	}

	respond(log, w, http.StatusCreated, dto.MapResultToIntakeResponse(res))
}

func (h *IntakeHandler) respondViolation(log *slog.Logger, w http.ResponseWriter, status int, v intake.Violation) {
	log.Info("submission rejected", slog.String("field", v.Field), slog.String("rule", v.Rule))
	respond(log, w, status, dto.MapViolations([]intake.Violation{v}))
}
