package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tokoshop"

// Metrics holds the counters recorded by the order lifecycle. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	LatencyMS      *prometheus.HistogramVec
	Checkouts      *prometheus.CounterVec
	Confirmations  *prometheus.CounterVec
	Transitions    *prometheus.CounterVec
	ExpiredOrders  prometheus.Counter
	CartPrunedLine prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_begin_total",
			Help:      "Payment attempts started, by gateway and result.",
		}, []string{"gateway", "result"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_confirmations_total",
			Help:      "Payment confirmations, by outcome.",
		}, []string{"outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Requested status transitions, by machine, target status and result.",
		}, []string{"machine", "to", "result"}),
		ExpiredOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_expired_total",
			Help:      "Unpaid orders cancelled by the expiry sweep.",
		}),
		CartPrunedLine: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_lines_pruned_total",
			Help:      "Cart lines removed because the product became unavailable.",
		}),
	}
	m.registry.MustRegister(
		m.Requests, m.LatencyMS, m.Checkouts, m.Confirmations,
		m.Transitions, m.ExpiredOrders, m.CartPrunedLine,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		route := c.Route().Path
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveCheckout(gateway string, err error) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(gateway, result(err)).Inc()
}

func (m *Metrics) ObserveConfirmation(outcome string) {
	if m == nil {
		return
	}
	m.Confirmations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTransition(machine, to string, err error) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(machine, to, result(err)).Inc()
}

func (m *Metrics) ObserveExpired(n int) {
	if m == nil {
		return
	}
	m.ExpiredOrders.Add(float64(n))
}

func (m *Metrics) ObservePruned(n int) {
	if m == nil {
		return
	}
	m.CartPrunedLine.Add(float64(n))
}
