package graceful

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"eventsPipeline/internal/utils/logger/sl"
)

// Operation is a cleanup step run on shutdown.
type Operation func(ctx context.Context) error

// GracefulShutdown waits for SIGINT/SIGTERM/SIGHUP or ctx cancellation, then runs
// every operation concurrently within timeout. The returned channel is closed
// once all operations finished or the timeout hit.
func GracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]Operation, log *slog.Logger) <-chan struct{} {
	wait := make(chan struct{})

	go func() {
		s := make(chan os.Signal, 1)
		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(s)

		select {
		case sig := <-s:
			log.Info("shutting down", slog.String("signal", sig.String()))
		case <-ctx.Done():
			log.Info("shutting down", slog.String("reason", "context done"))
		}

		timeoutCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		timeoutFunc := time.AfterFunc(timeout, func() {
			log.Warn("shutdown timeout elapsed, forcing exit", slog.Duration("timeout", timeout))
			close(wait)
		})
		defer timeoutFunc.Stop()

		var wg sync.WaitGroup
		for name, op := range ops {
			wg.Add(1)
			go func() {
				defer wg.Done()

				log.Info("cleaning up", slog.String("service", name))
				if err := op(timeoutCtx); err != nil {
					log.Error("clean up failed", slog.String("service", name), sl.Err(err))
					return
				}
				log.Info("shutdown gracefully", slog.String("service", name))
			}()
		}
		wg.Wait()

		if timeoutFunc.Stop() {
			close(wait)
		}
	}()

	return wait
}
