// Package metrics holds the Prometheus collectors for the matching engine.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SwipesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddy_swipes_recorded_total",
		Help: "Engagements written, by direction",
	}, []string{"direction"})

	MatchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddy_match_attempts_total",
		Help: "Match creation attempts, by result (created, already_matched, error)",
	}, []string{"result"})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddy_notification_failures_total",
		Help: "Match notification batches that could not be written",
	})

	ChatsProvisioned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddy_chats_provisioned_total",
		Help: "Direct chat provisioning outcomes (created, reused, failed)",
	}, []string{"outcome"})

	ChatsOrphaned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddy_chat_orphaned_total",
		Help: "Chats left without participants because compensation failed",
	})
)

// Serve exposes the default registry on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
