package runtime

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	loggingpkg "github.com/drblury/flowtape/internal/runtime/logging"
)

// storeMetrics bundles the Prometheus collectors the store maintains when
// metrics are enabled.
type storeMetrics struct {
	eventsRecorded   *prometheus.CounterVec
	sessionsStarted  prometheus.Counter
	sessionsStopped  prometheus.Counter
	replaysStarted   prometheus.Counter
	replaysFinished  *prometheus.CounterVec
	eventsDelivered  *prometheus.CounterVec
	channelsGauge    prometheus.Gauge
	stateGauge       prometheus.Gauge
	tapPublishErrors prometheus.Counter
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &storeMetrics{
		eventsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowtape",
			Name:      "events_recorded_total",
			Help:      "Events appended to channel logs during recording sessions.",
		}, []string{"channel"}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowtape",
			Name:      "sessions_started_total",
			Help:      "Recording sessions started.",
		}),
		sessionsStopped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowtape",
			Name:      "sessions_stopped_total",
			Help:      "Recording sessions stopped.",
		}),
		replaysStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowtape",
			Name:      "replays_started_total",
			Help:      "Replay runs started.",
		}),
		replaysFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowtape",
			Name:      "replays_finished_total",
			Help:      "Replay runs finished, by outcome.",
		}, []string{"outcome"}),
		eventsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowtape",
			Name:      "events_delivered_total",
			Help:      "Events delivered to middlewares during replay.",
		}, []string{"channel"}),
		channelsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowtape",
			Name:      "registered_channels",
			Help:      "Currently registered channels.",
		}),
		stateGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowtape",
			Name:      "store_state",
			Help:      "Current store state (0=idle, 1=recording, 2=playback, 3=finished_playback).",
		}),
		tapPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flowtape",
			Name:      "tap_publish_errors_total",
			Help:      "Failed tap publishes (logged and dropped).",
		}),
	}

	reg.MustRegister(
		m.eventsRecorded,
		m.sessionsStarted,
		m.sessionsStopped,
		m.replaysStarted,
		m.replaysFinished,
		m.eventsDelivered,
		m.channelsGauge,
		m.stateGauge,
		m.tapPublishErrors,
	)

	return m
}

func (m *storeMetrics) recorded(channel string) {
	if m == nil {
		return
	}
	m.eventsRecorded.WithLabelValues(channel).Inc()
}

func (m *storeMetrics) delivered(channel string) {
	if m == nil {
		return
	}
	m.eventsDelivered.WithLabelValues(channel).Inc()
}

func (m *storeMetrics) sessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *storeMetrics) sessionStopped() {
	if m == nil {
		return
	}
	m.sessionsStopped.Inc()
}

func (m *storeMetrics) replayStarted() {
	if m == nil {
		return
	}
	m.replaysStarted.Inc()
}

func (m *storeMetrics) replayFinished(cancelled bool) {
	if m == nil {
		return
	}
	outcome := "completed"
	if cancelled {
		outcome = "cancelled"
	}
	m.replaysFinished.WithLabelValues(outcome).Inc()
}

func (m *storeMetrics) channels(n int) {
	if m == nil {
		return
	}
	m.channelsGauge.Set(float64(n))
}

func (m *storeMetrics) state(st StoreState) {
	if m == nil {
		return
	}
	m.stateGauge.Set(float64(st))
}

func (m *storeMetrics) tapError() {
	if m == nil {
		return
	}
	m.tapPublishErrors.Inc()
}

// startMetricsServer exposes the default Prometheus registry on the given
// port. It runs in the background until the process exits.
func startMetricsServer(port int, logger loggingpkg.ServiceLogger) {
	addr := fmt.Sprintf(":%d", port)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("Starting metrics server", loggingpkg.LogFields{"address": addr})
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Failed to start metrics server", err, loggingpkg.LogFields{"address": addr})
		}
	}()
}
