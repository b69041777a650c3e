package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/utils/logger/sl"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation   = "23505"
	pqUndefinedFunction = "42883"
)

// Repository is the Postgres-backed catalog store.
type Repository struct {
	DB                *sqlx.DB
	log               *slog.Logger
	similarityEnabled bool
}

// New connects to Postgres and ensures the schema exists. It exits the process
// when the database is unreachable, like the rest of the service bootstrap.
func New(log *slog.Logger, cfg *config.Config) *Repository {
	op := "repository.New()"
	l := log.With(slog.String("op", op))

	r, err := Open(context.Background(), log, cfg.DBConfig)
	if err != nil {
		l.Error("cannot open database", sl.Err(err))
		panic(err)
	}

	l.Info("repository ready", slog.Bool("similaritySearch", r.similarityEnabled))
	return r
}

// Open connects, applies the schema and probes for similarity search support.
func Open(ctx context.Context, log *slog.Logger, cfg config.DBConfig) (*Repository, error) {
	op := "repository.Open()"

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	r := &Repository{DB: db, log: log}
	if err := r.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// SimilarityEnabled reports whether pg_trgm similarity search is available.
func (r *Repository) SimilarityEnabled() bool {
	return r.similarityEnabled
}

// Shutdown closes the connection pool.
func (r *Repository) Shutdown(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("force exit repository: %w", ctx.Err())
	default:
		return r.DB.Close()
	}
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
