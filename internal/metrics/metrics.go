// Package metrics exposes per-URL and per-batch Prometheus metrics.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/models"
)

const namespace = "sitescreen"

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	urls        *prometheus.CounterVec
	verdicts    *prometheus.CounterVec
	degraded    *prometheus.CounterVec
	failures    *prometheus.CounterVec
	matches     *prometheus.CounterVec
	urlDuration prometheus.Histogram
	scores      prometheus.Histogram
	lastBatch   prometheus.Gauge
	batchSize   prometheus.Gauge
}

// New registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		urls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_processed_total",
			Help:      "URLs processed, by outcome status.",
		}, []string{"status"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Classified URLs by verdict.",
		}, []string{"verdict"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_stages_total",
			Help:      "Pipeline stages that degraded to a sentinel value.",
		}, []string{"reason"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "url_failures_total",
			Help:      "URLs that could not be written, by reason.",
		}, []string{"reason"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_matches_total",
			Help:      "Classified URLs by rule matcher mode.",
		}, []string{"mode"}),
		urlDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "url_duration_seconds",
			Help:      "Wall time spent on one URL.",
			Buckets:   []float64{5, 10, 20, 30, 45, 60, 90, 120, 180},
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Fused risk score of classified URLs.",
			Buckets:   []float64{0, 2, 4, 5, 7, 9, 10, 11, 13, 15},
		}),
		lastBatch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_batch_finished_timestamp_seconds",
			Help:      "Unix time the last batch finished.",
		}),
		batchSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_batch_urls",
			Help:      "URLs in the last batch.",
		}),
	}

	m.registry.MustRegister(
		m.urls, m.verdicts, m.degraded, m.failures, m.matches,
		m.urlDuration, m.scores, m.lastBatch, m.batchSize,
		prometheus.NewGoCollector(),
	)
	return m
}

// ObserveOutcome records one URL outcome
func (m *Metrics) ObserveOutcome(o *models.URLOutcome) {
	if m == nil || o == nil {
		return
	}
	m.urls.WithLabelValues(string(o.Status)).Inc()
	m.urlDuration.Observe(o.Duration.Seconds())
	for _, r := range o.Degraded {
		m.degraded.WithLabelValues(string(r)).Inc()
	}
	if o.Status == models.OutcomeOK {
		m.verdicts.WithLabelValues(string(o.Verdict)).Inc()
		m.scores.Observe(o.Score)
		if o.MatchMode != "" {
			m.matches.WithLabelValues(string(o.MatchMode)).Inc()
		}
	} else {
		m.failures.WithLabelValues(string(o.Reason)).Inc()
	}
}

// ObserveBatch records batch completion
func (m *Metrics) ObserveBatch(r *models.BatchReport) {
	if m == nil || r == nil {
		return
	}
	m.batchSize.Set(float64(r.Total))
	m.lastBatch.Set(float64(r.FinishedAt.Unix()))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string, logger arbor.ILogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("address", addr).Msg("Metrics endpoint listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
