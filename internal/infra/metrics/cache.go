package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal, rateLimitDropsTotal) }

var (
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Tracks cache hits and misses for various caches.",
		},
		[]string{"cache", "result"}, // e.g., cache="plan", result="hit"
	)

	rateLimitDropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_drops_total",
			Help: "Requests rejected by the rate limiter, by route.",
		},
		[]string{"route"},
	)
)

func IncCacheRequest(cacheName, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}

func IncRateLimitDrop(route string) {
	rateLimitDropsTotal.WithLabelValues(route).Inc()
}
