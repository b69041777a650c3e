package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventsPipeline/internal/auth"
	"eventsPipeline/internal/utils"
	"eventsPipeline/internal/utils/logger/sl"
)

// CollectorAuth rejects requests without a valid collector bearer credential
// before any other processing happens.
func CollectorAuth(log *slog.Logger, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				credential = ""
			}

			if err := auth.Verify(secret, strings.TrimSpace(credential)); err != nil {
				log.Warn("unauthorized request",
					slog.String("path", r.URL.Path),
					slog.String("remote", r.RemoteAddr),
					sl.Err(err),
				)
				status := http.StatusUnauthorized
				if errors.Is(err, auth.ErrNoSecret) {
					status = http.StatusServiceUnavailable
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="collector"`)
				utils.Err(w, status, errors.New("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
