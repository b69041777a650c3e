package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"eventsPipeline/internal/migration"
	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/transport/httpServer/handlers/dto"
)

type MigrationHandler struct {
	service MigrationService
	log     *slog.Logger
}

func NewMigrationHandler(log *slog.Logger, service MigrationService) *MigrationHandler {
	return &MigrationHandler{
		service: service,
		log:     log,
	}
}

// Preview handles GET /api/v1/migrations/media/preview?event_id=...&limit=...
// Without event_id every event is considered.
func (h *MigrationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.MigrationHandler.Preview()"
	log := h.log.With(slog.String("op", op))

	q := r.URL.Query()
	req := dto.MigrationRequest{EventIDs: q["event_id"], All: len(q["event_id"]) == 0}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(log, fmt.Errorf("invalid limit: %s", raw), w, http.StatusBadRequest)
			return
		}
		req.Limit = limit
	}

	mreq, err := dto.MapMigrationRequest(req)
	if err != nil {
		respondError(log, err, w, http.StatusBadRequest)
		return
	}

	preview, err := h.service.Preview(r.Context(), mreq)
	if err != nil {
		respondError(log, err, w, migrationStatus(err))
		return
	}

	respond(log, w, http.StatusOK, dto.MapPreview(preview))
}

// Run handles POST /api/v1/migrations/media.
func (h *MigrationHandler) Run(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.MigrationHandler.Run()"
	log := h.log.With(slog.String("op", op))

	var req dto.MigrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(log, fmt.Errorf("cannot decode json: %w", err), w, http.StatusBadRequest)
		return
	}

	mreq, err := dto.MapMigrationRequest(req)
	if err != nil {
		respondError(log, err, w, http.StatusBadRequest)
		return
	}

	log.Info("running media migration",
		slog.Int("eventIDs", len(mreq.EventIDs)),
		slog.Bool("all", mreq.All),
		slog.Bool("dryRun", mreq.DryRun),
	)

	report, err := h.service.Run(r.Context(), mreq)
	if err != nil {
		respondError(log, err, w, migrationStatus(err))
		return
	}

	respond(log, w, http.StatusOK, dto.MapReport(report))
}

func migrationStatus(err error) int {
	switch {
	case errors.Is(err, migration.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
