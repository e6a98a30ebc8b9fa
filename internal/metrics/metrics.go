// Package metrics exposes simulator and ledger gauges in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Namespace prefixes every metric name.
const Namespace = "perpshield"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ticks           prometheus.Counter
	tickFailures    prometheus.Counter
	positionsOpened *prometheus.CounterVec
	positionsClosed *prometheus.CounterVec
	openPositions   prometheus.Gauge
	unrealizedPnL   prometheus.Gauge
	prices          *prometheus.GaugeVec
	alerts          *prometheus.CounterVec
	tickDuration    prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ticks_total",
			Help:      "Total number of price ticks applied",
		}),

		tickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tick_failures_total",
			Help:      "Ticks that failed and kept the previous prices",
		}),

		positionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "positions_opened_total",
			Help:      "Positions opened by direction",
		}, []string{"direction"}),

		positionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "positions_closed_total",
			Help:      "Positions removed from the ledger by reason",
		}, []string{"reason"}),

		openPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),

		unrealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "unrealized_pnl",
			Help:      "Sum of unrealized PnL across open positions",
		}),

		prices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "instrument_price",
			Help:      "Last simulated price by symbol",
		}, []string{"symbol"}),

		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "alerts_total",
			Help:      "Alerts raised by type",
		}, []string{"type"}),

		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent applying one tick",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}

	registry.MustRegister(
		m.ticks,
		m.tickFailures,
		m.positionsOpened,
		m.positionsClosed,
		m.openPositions,
		m.unrealizedPnL,
		m.prices,
		m.alerts,
		m.tickDuration,
	)

	return m
}

// Registry returns the underlying registry as a gatherer.
func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

// RecordTick records a successful tick and how long it took.
func (m *Metrics) RecordTick(d time.Duration) {
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}

// RecordTickFailure records a tick that kept the previous state.
func (m *Metrics) RecordTickFailure() {
	m.tickFailures.Inc()
}

// RecordOpen records a new position.
func (m *Metrics) RecordOpen(direction string) {
	m.positionsOpened.WithLabelValues(direction).Inc()
}

// RecordClose records a position leaving the ledger; reason is "close" or "liquidated".
func (m *Metrics) RecordClose(reason string) {
	m.positionsClosed.WithLabelValues(reason).Inc()
}

// RecordAlert counts an alert by type.
func (m *Metrics) RecordAlert(alertType string) {
	m.alerts.WithLabelValues(alertType).Inc()
}

// SetPrice updates the price gauge of a symbol.
func (m *Metrics) SetPrice(symbol string, price float64) {
	m.prices.WithLabelValues(symbol).Set(price)
}

// SetLedger updates the open-position gauges.
func (m *Metrics) SetLedger(open int, pnl float64) {
	m.openPositions.Set(float64(open))
	m.unrealizedPnL.Set(pnl)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting metrics server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("Metrics server stopped")
		return nil
	}
}
