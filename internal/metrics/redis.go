package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// RegisterRedisMetrics exposes go-redis connection pool statistics as
// Prometheus collectors. The identity store sits on every admission path, so
// pool exhaustion shows up here first.
func RegisterRedisMetrics(client *redis.Client) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "redis_pool_total_conns",
			Help: "Total number of connections in the pool",
		}, func() float64 {
			return float64(client.PoolStats().TotalConns)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "redis_pool_idle_conns",
			Help: "Number of idle connections in the pool",
		}, func() float64 {
			return float64(client.PoolStats().IdleConns)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "redis_pool_hits_total",
			Help: "Number of times a free connection was found in the pool",
		}, func() float64 {
			return float64(client.PoolStats().Hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "redis_pool_misses_total",
			Help: "Number of times a free connection was not found in the pool",
		}, func() float64 {
			return float64(client.PoolStats().Misses)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "redis_pool_timeouts_total",
			Help: "Number of times a wait for a connection timed out",
		}, func() float64 {
			return float64(client.PoolStats().Timeouts)
		}),
	)
}
