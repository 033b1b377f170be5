package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// Middleware records every request under its route pattern, so path
// parameters do not explode label cardinality.
func (m *ServerMetrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}

// DomainMetrics counts checkout and reconciliation outcomes. A nil
// *DomainMetrics is valid and records nothing.
type DomainMetrics struct {
	OrdersMaterialized     *prometheus.CounterVec
	DuplicateConfirmations prometheus.Counter
	UpstreamFailures       *prometheus.CounterVec
}

func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	m := &DomainMetrics{
		OrdersMaterialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_materialized_total",
			Help:      "Orders created or advanced from payment confirmations.",
		}, []string{"outcome"}),
		DuplicateConfirmations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_confirmations_total",
			Help:      "Payment confirmations that changed nothing.",
		}),
		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_upstream_failures_total",
			Help:      "Failed calls to the payment processor.",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.OrdersMaterialized, m.DuplicateConfirmations, m.UpstreamFailures)
	return m
}

func (m *DomainMetrics) OrderMaterialized(outcome string) {
	if m == nil {
		return
	}
	m.OrdersMaterialized.WithLabelValues(outcome).Inc()
}

func (m *DomainMetrics) DuplicateConfirmation() {
	if m == nil {
		return
	}
	m.DuplicateConfirmations.Inc()
}

func (m *DomainMetrics) UpstreamFailure(operation string) {
	if m == nil {
		return
	}
	m.UpstreamFailures.WithLabelValues(operation).Inc()
}
