package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instatrip",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "instatrip",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "instatrip",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Provider metrics
	RouteFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instatrip",
		Subsystem: "provider",
		Name:      "route_fetches_total",
		Help:      "Route provider calls by outcome",
	}, []string{"outcome"})

	PhotoSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instatrip",
		Subsystem: "provider",
		Name:      "photo_searches_total",
		Help:      "Photo searches by outcome (ok, empty, error, timeout)",
	}, []string{"outcome"})

	PhotosDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "instatrip",
		Subsystem: "provider",
		Name:      "photos_dropped_total",
		Help:      "Photo records dropped for missing link, image or location",
	})

	// Trip pipeline metrics
	PointsSampled = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "instatrip",
		Subsystem: "trip",
		Name:      "points_sampled",
		Help:      "Stop-points sampled per route",
		Buckets:   []float64{0, 1, 2, 3, 4, 5, 6},
	})

	AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "instatrip",
		Subsystem: "trip",
		Name:      "aggregation_duration_seconds",
		Help:      "Time to fan out and collect all photo searches for a trip",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	TripsPlanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instatrip",
		Subsystem: "trip",
		Name:      "planned_total",
		Help:      "Trips planned by travel mode",
	}, []string{"mode"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "instatrip",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instatrip",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instatrip",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
