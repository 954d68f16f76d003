// Package metrics holds the prometheus collectors for the HTTP surface and the
// money-moving operations.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishy_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wishy_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	Contributions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishy_payments_total",
		Help: "Payments recorded toward wishlists, by source.",
	}, []string{"source"})

	Deposits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishy_wallet_deposits_total",
		Help: "Wallet deposits by outcome (initiated, completed, failed, replayed).",
	}, []string{"outcome"})

	Withdrawals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishy_wallet_withdrawals_total",
		Help: "Wallet withdrawals by outcome (completed, replayed, rejected).",
	}, []string{"outcome"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishy_rate_limited_total",
		Help: "Requests rejected by the in-process rate limiter.",
	}, []string{"scope", "reason"})

	StoreConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wishy_store_conflicts_total",
		Help: "Account saves rejected by the version check and retried.",
	})
)

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
