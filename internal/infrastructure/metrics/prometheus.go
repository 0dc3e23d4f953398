// Package metrics expone las métricas Prometheus del libro de stock y del transporte HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

var _ inventory.LedgerMetrics = (*LedgerMetrics)(nil)

// LedgerMetrics implementación Prometheus de inventory.LedgerMetrics.
type LedgerMetrics struct {
	operations        *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	movements         *prometheus.CounterVec
	insufficientStock prometheus.Counter
	repaired          prometheus.Counter
}

// NewLedgerMetrics crea y registra las métricas del motor en reg.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_ledger_operations_total",
				Help: "Operaciones del motor de stock por resultado",
			},
			[]string{"operation", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stock_ledger_operation_duration_seconds",
				Help:    "Duración de las operaciones del motor de stock",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		movements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_ledger_movements_appended_total",
				Help: "Movimientos anexados al libro por dirección",
			},
			[]string{"direction"},
		),
		insufficientStock: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_ledger_insufficient_stock_total",
			Help: "Ventas rechazadas por stock insuficiente",
		}),
		repaired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_ledger_variants_repaired_total",
			Help: "Variantes negativas llevadas a cero",
		}),
	}
	reg.MustRegister(m.operations, m.duration, m.movements, m.insufficientStock, m.repaired)
	return m
}

// ObserveOperation implementa inventory.LedgerMetrics.
func (m *LedgerMetrics) ObserveOperation(op string, err error, elapsed time.Duration) {
	code := "OK"
	if err != nil {
		code = domain.ErrorCode(err)
	}
	m.operations.WithLabelValues(op, code).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// MovementsAppended implementa inventory.LedgerMetrics.
func (m *LedgerMetrics) MovementsAppended(direction string, n int) {
	m.movements.WithLabelValues(direction).Add(float64(n))
}

// InsufficientStock implementa inventory.LedgerMetrics. El producto no es etiqueta para no disparar la cardinalidad.
func (m *LedgerMetrics) InsufficientStock(string) {
	m.insufficientStock.Inc()
}

// VariantsRepaired implementa inventory.LedgerMetrics.
func (m *LedgerMetrics) VariantsRepaired(n int64) {
	m.repaired.Add(float64(n))
}

// HTTPMetrics contador y latencia de peticiones HTTP.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics crea y registra las métricas HTTP en reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_ledger_http_requests_total",
				Help: "Peticiones HTTP atendidas",
			},
			[]string{"method", "route", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stock_ledger_http_request_duration_seconds",
				Help:    "Duración de las peticiones HTTP",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

// Observe registra una petición atendida.
func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
