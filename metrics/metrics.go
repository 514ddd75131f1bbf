package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "coffeeshop",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffeeshop",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coffeeshop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffeeshop",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders placed, by order type and payment method.",
		},
		[]string{"order_type", "payment_method"},
	)

	orderRevenue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coffeeshop",
			Subsystem: "orders",
			Name:      "revenue_total",
			Help:      "Sum of order totals at placement time.",
		},
	)

	topUps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coffeeshop",
			Subsystem: "members",
			Name:      "topups_total",
			Help:      "Completed balance top-ups.",
		},
	)

	topUpAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coffeeshop",
			Subsystem: "members",
			Name:      "topup_amount_total",
			Help:      "Sum of top-up amounts.",
		},
	)

	inventoryMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffeeshop",
			Subsystem: "inventory",
			Name:      "transactions_total",
			Help:      "Recorded inventory transactions by type.",
		},
		[]string{"type"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coffeeshop",
			Subsystem: "reservations",
			Name:      "created_total",
			Help:      "Reservations created.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersPlaced,
		orderRevenue,
		topUps,
		topUpAmount,
		inventoryMovements,
		reservationsCreated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted marks a request in flight and returns the function that records its outcome.
// route is the matched route pattern, not the raw path, to keep label cardinality bounded.
func RequestStarted() func(method, route string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, route string, status int) {
		httpInFlight.Dec()
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordOrder counts a placed order
func RecordOrder(orderType, paymentMethod string, total float64) {
	ordersPlaced.WithLabelValues(orderType, paymentMethod).Inc()
	orderRevenue.Add(total)
}

// RecordTopUp counts a completed top-up
func RecordTopUp(amount float64) {
	topUps.Inc()
	topUpAmount.Add(amount)
}

// RecordInventoryTransaction counts a stock movement
func RecordInventoryTransaction(kind string) {
	inventoryMovements.WithLabelValues(kind).Inc()
}

// RecordReservation counts a created reservation
func RecordReservation() {
	reservationsCreated.Inc()
}
