package middleware

import (
	"institute-service/internal/auth"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRetryAfter    = "Retry-After"
	msgRateLimited      = "rate limit exceeded"
)

// RateLimiter implements token bucket rate limiting per caller
type RateLimiter struct {
	limiters sync.Map // key -> *rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
// requestsPerSecond: number of requests allowed per second
// burst: maximum burst size
func NewRateLimiter(requestsPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	limiter, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	return limiter.(*rate.Limiter)
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// limiterKey prefers the gate's identity so callers behind one proxy do not
// share a bucket. Requests that have not passed the gate fall back to IP.
func limiterKey(c echo.Context) string {
	if identity, err := auth.GetIdentity(c); err == nil {
		if identity.Subject != "" {
			return "user:" + identity.Subject
		}
		return "role:" + identity.RoleName
	}
	return "ip:" + c.RealIP()
}

// Middleware returns an Echo middleware function for rate limiting
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := rl.getLimiter(limiterKey(c))
			header := c.Response().Header()
			header.Set(headerRateLimit, strconv.Itoa(rl.burst))

			if !limiter.Allow() {
				header.Set(headerRateRemaining, "0")
				header.Set(headerRetryAfter, "1")

				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": msgRateLimited,
				})
			}

			header.Set(headerRateRemaining, strconv.Itoa(int(limiter.Tokens())))
			return next(c)
		}
	}
}

// NewCallerRateLimiter limits authenticated callers on the protected API.
func NewCallerRateLimiter() *RateLimiter {
	return NewRateLimiter(20, 40)
}

// NewGlobalRateLimiter is the lenient per-IP limiter in front of every route.
func NewGlobalRateLimiter() *RateLimiter {
	return NewRateLimiter(100, 200)
}
