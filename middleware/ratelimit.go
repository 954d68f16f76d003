package middleware

import (
	"net/http"

	"github.com/JayJosh846/wishy/metrics"
	"github.com/JayJosh846/wishy/ratelimit"
	"github.com/gin-gonic/gin"
)

const (
	ScopeContribute     = "contrib"
	ScopeWalletInitiate = "wallet_init"
)

// Throttle charges one request against the caller's window and aborts with
// 429 once the caller exceeds rule. The limiter key is
// scope:<key>:<client ip>. Call it only once the request body validated.
func Throttle(c *gin.Context, limiter *ratelimit.Limiter, scope string, rule ratelimit.Rule, key string) bool {
	decision := limiter.Allow(scope+":"+key+":"+c.ClientIP(), rule)
	if !decision.Allowed {
		metrics.RateLimited.WithLabelValues(scope, decision.Reason).Inc()
		abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, please slow down")
		return false
	}
	return true
}
