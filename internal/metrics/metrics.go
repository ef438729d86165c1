// Package metrics exposes Prometheus collectors for tokendock.
//
// All collectors live on a private registry so tests and multiple
// instances never collide on the default one.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
)

const namespace = "tokendock"

type Metrics struct {
	reg *prometheus.Registry

	favorites      prometheus.Gauge
	pinned         prometheus.Gauge
	pinAttempts    *prometheus.CounterVec
	storeWrites    *prometheus.CounterVec
	cascadeDeleted prometheus.Counter

	appsLoaded  prometheus.Gauge
	appsReloads *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New builds and registers every collector.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		favorites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "favorites",
			Help:      "Number of saved favorites",
		}),
		pinned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "favorites_pinned",
			Help:      "Number of pinned favorites",
		}),
		pinAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pin_attempts_total",
			Help:      "Pin attempts by result",
		}, []string{"result"}), // result: success|limit|not_found
		storeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Favorites blob writes by driver and result",
		}, []string{"driver", "result"}),
		cascadeDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_deleted_total",
			Help:      "Favorites removed because their app registration went away",
		}),
		appsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "apps",
			Help:      "Number of app registrations in the catalog",
		}),
		appsReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "apps_reloads_total",
			Help:      "Apps catalog reloads by result",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.favorites,
		m.pinned,
		m.pinAttempts,
		m.storeWrites,
		m.cascadeDeleted,
		m.appsLoaded,
		m.appsReloads,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ─────────────────────────────
// favorites.Recorder
// ─────────────────────────────

func (m *Metrics) PinAttempt(reason domain.PinReason) {
	if m == nil {
		return
	}
	result := string(reason)
	if reason == domain.ReasonNone {
		result = "success"
	}
	m.pinAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) StoreWrite(driver string, err error) {
	if m == nil {
		return
	}
	m.storeWrites.WithLabelValues(driver, resultLabel(err)).Inc()
}

func (m *Metrics) Collection(total, pinned int) {
	if m == nil {
		return
	}
	m.favorites.Set(float64(total))
	m.pinned.Set(float64(pinned))
}

func (m *Metrics) Cascade(deleted int) {
	if m == nil {
		return
	}
	m.cascadeDeleted.Add(float64(deleted))
}

// ─────────────────────────────
// Catalog and HTTP
// ─────────────────────────────

// AppsReload records the outcome of a catalog reload.
func (m *Metrics) AppsReload(count int, err error) {
	if m == nil {
		return
	}
	m.appsReloads.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		m.appsLoaded.Set(float64(count))
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
