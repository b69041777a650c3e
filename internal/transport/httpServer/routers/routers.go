package routers

import (
	"log/slog"
	"net/http"

	"eventsPipeline/internal/transport/httpServer/handlers"
	myMiddleware "eventsPipeline/internal/transport/httpServer/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Storage describes the owned bucket served as static files.
type Storage struct {
	Bucket string
	Dir    string
}

type Router struct {
	log              *slog.Logger
	collectorSecret  string
	gatherer         prometheus.Gatherer
	storage          Storage
	intakeHandler    *handlers.IntakeHandler
	migrationHandler *handlers.MigrationHandler
	collectorHandler *handlers.CollectorHandler
}

func NewRouter(
	log *slog.Logger,
	collectorSecret string,
	gatherer prometheus.Gatherer,
	storage Storage,
	intakeHandler *handlers.IntakeHandler,
	migrationHandler *handlers.MigrationHandler,
	collectorHandler *handlers.CollectorHandler,
) *Router {
	return &Router{
		log:              log,
		collectorSecret:  collectorSecret,
		gatherer:         gatherer,
		storage:          storage,
		intakeHandler:    intakeHandler,
		migrationHandler: migrationHandler,
		collectorHandler: collectorHandler,
	}
}

func (r *Router) Mount(mux *chi.Mux) {

	mux.Use(cors.AllowAll().Handler)
	mux.Use(middleware.RequestID)
	mux.Use(myMiddleware.Logger(r.log))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Heartbeat("/ping"))

	if r.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}

	if r.storage.Bucket != "" && r.storage.Dir != "" {
		prefix := "/storage/" + r.storage.Bucket + "/"
		mux.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(r.storage.Dir))))
	}

	mux.Route("/api", func(mux chi.Router) {
		mux.Route("/v1", func(mux chi.Router) {
			mux.Use(myMiddleware.CollectorAuth(r.log, r.collectorSecret))

			mux.Post("/intake/events", r.intakeHandler.Submit)
			mux.Route("/migrations/media", func(mux chi.Router) {
				mux.Get("/preview", r.migrationHandler.Preview)
				mux.Post("/", r.migrationHandler.Run)
			})
			mux.Post("/collector/runs", r.collectorHandler.Run)
			mux.Get("/classify", r.collectorHandler.Classify)
		})
	})
}
