package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL is how long an idle client's bucket is kept.
	IdleTTL time.Duration
}

// RateLimiter holds one token bucket per client, keyed by user id when authenticated and by
// client ip otherwise.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	buckets *cache.Cache
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(config.RequestsPerSecond),
		burst:   config.Burst,
		ttl:     config.IdleTTL,
		buckets: cache.New(config.IdleTTL, 2*config.IdleTTL),
	}
}

// Allow takes a token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	var limiter *rate.Limiter
	if v, ok := rl.buckets.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		if err := rl.buckets.Add(key, limiter, rl.ttl); err != nil {
			// lost the race to another request of the same client
			if v, ok := rl.buckets.Get(key); ok {
				limiter = v.(*rate.Limiter)
			}
		}
	}
	// sliding expiry
	rl.buckets.Set(key, limiter, rl.ttl)
	return limiter.Allow()
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if p := PrincipalFrom(c); p != nil {
			key = "user:" + p.UserID.String()
		}

		if !rl.Allow(key) {
			c.Header("Retry-After", "1")
			httputil.RespondWithStatusError(c, http.StatusTooManyRequests, apperrors.Validation("too many requests", nil))
			return
		}
		c.Next()
	}
}
