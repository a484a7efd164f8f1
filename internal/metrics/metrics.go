package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns the Prometheus collectors for the service. It implements the
// weather.Metrics contract and additionally records per-request HTTP metrics
// for the middleware.
type Recorder struct {
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	coalescedFetches prometheus.Counter
	upstreamFailures *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// NewRecorder registers all collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "weather_cache_hits_total",
			Help: "Requests served from the cache.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "weather_cache_misses_total",
			Help: "Requests that missed the cache.",
		}),
		coalescedFetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "weather_coalesced_fetches_total",
			Help: "Results delivered from a shared in-flight fetch.",
		}),
		upstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_upstream_failures_total",
			Help: "Failed upstream operations.",
		}, []string{"operation"}),
		upstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weather_upstream_duration_seconds",
			Help:    "Latency of upstream operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests.",
		}, []string{"method", "path", "status_code"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}
}

func (r *Recorder) CacheHit()       { r.cacheHits.Inc() }
func (r *Recorder) CacheMiss()      { r.cacheMisses.Inc() }
func (r *Recorder) CoalescedFetch() { r.coalescedFetches.Inc() }

func (r *Recorder) UpstreamFailure(op string) {
	r.upstreamFailures.WithLabelValues(op).Inc()
}

func (r *Recorder) ObserveUpstream(op string, d time.Duration) {
	r.upstreamLatency.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveHTTP records one handled HTTP request.
func (r *Recorder) ObserveHTTP(method, path string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(path).Observe(d.Seconds())
}
