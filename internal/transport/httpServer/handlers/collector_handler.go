package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"eventsPipeline/internal/orchestrator"
	"eventsPipeline/internal/transport/httpServer/handlers/dto"
	"eventsPipeline/internal/urlclassifier"
)

type CollectorHandler struct {
	collector  Collector
	classifier *urlclassifier.Classifier
	log        *slog.Logger
}

func NewCollectorHandler(log *slog.Logger, collector Collector, classifier *urlclassifier.Classifier) *CollectorHandler {
	return &CollectorHandler{
		collector:  collector,
		classifier: classifier,
		log:        log,
	}
}

// Run handles POST /api/v1/collector/runs. An empty body runs every configured site.
func (h *CollectorHandler) Run(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.CollectorHandler.Run()"
	log := h.log.With(slog.String("op", op))

	var req dto.CollectorRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(log, fmt.Errorf("cannot decode json: %w", err), w, http.StatusBadRequest)
		return
	}

	sites, err := h.collector.Sites(req.Sites...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, orchestrator.ErrUnknownSite) {
			status = http.StatusBadRequest
		}
		respondError(log, err, w, status)
		return
	}

	log.Info("starting collector run", slog.Int("sites", len(sites)))
	reports := h.collector.Collect(r.Context(), sites)

	respond(log, w, http.StatusOK, dto.MapCollectorReports(reports))
}

// Classify handles GET /api/v1/classify?url=...
func (h *CollectorHandler) Classify(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.CollectorHandler.Classify()"
	log := h.log.With(slog.String("op", op))

	raw := r.URL.Query().Get("url")
	if raw == "" {
		respondError(log, fmt.Errorf("empty url"), w, http.StatusBadRequest)
		return
	}

	respond(log, w, http.StatusOK, dto.MapClassification(h.classifier, raw))
}
