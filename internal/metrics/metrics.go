package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
)

var (
	stageOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cover_indexer_stage_outcomes_total",
		Help: "Deliveries settled per stage topic and outcome",
	}, []string{"stage", "outcome"})

	reconciled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cover_indexer_reconciled_total",
		Help: "Identifiers classified by the reconciliation engine per vendor and operation",
	}, []string{"vendor", "operation"})

	noHitsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cover_indexer_nohit_published_total",
		Help: "No-hit items published after cache deduplication",
	})
)

func init() {
	prometheus.MustRegister(stageOutcomes, reconciled, noHitsPublished)
}

// ObserveOutcome counts a settled delivery. Its signature matches the consumer outcome observer.
func ObserveOutcome(topic messaging.Topic, outcome domain.Outcome) {
	stageOutcomes.WithLabelValues(topic.String(), outcome.String()).Inc()
}

// ObserveReconciled counts identifiers classified for a vendor
func ObserveReconciled(vendor string, op domain.Operation, n int) {
	if n <= 0 {
		return
	}
	reconciled.WithLabelValues(vendor, string(op)).Add(float64(n))
}

// ObserveNoHitsPublished counts no-hit items that passed the cache
func ObserveNoHitsPublished(n int) {
	if n <= 0 {
		return
	}
	noHitsPublished.Add(float64(n))
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WarnCtx(ctx, "Metrics server shutdown failed", zap.Error(err))
		}
	}()

	logger.InfoCtx(ctx, "Serving metrics", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
