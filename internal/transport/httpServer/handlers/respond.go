package handlers

import (
	"log/slog"
	"net/http"

	"eventsPipeline/internal/utils"
	"eventsPipeline/internal/utils/logger/sl"
)

func respondError(log *slog.Logger, err error, w http.ResponseWriter, status int) {
	if status >= http.StatusInternalServerError {
		log.Error("handler error", sl.Err(err))
	} else {
		log.Warn("request rejected", slog.Int("status", status), sl.Err(err))
	}
	if httpErr := utils.Err(w, status, err); httpErr != nil {
		log.Error("error sending http response", sl.Err(httpErr))
	}
}

func respond(log *slog.Logger, w http.ResponseWriter, status int, v any) {
	if err := utils.Json(w, status, v); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}
