package restapi

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"slugstop.org/tracker/internal/models"
)

const noKeyBucket = "__no_key__"

// RateLimitMiddleware provides per-API-key rate limiting on /api routes.
type RateLimitMiddleware struct {
	limiters    map[string]*rate.Limiter
	mu          sync.RWMutex
	rateLimit   rate.Limit
	burstSize   int
	cleanupTick *time.Ticker
	exemptKeys  map[string]bool
}

// NewRateLimitMiddleware allows ratePerSecond requests per interval for each
// API key. A negative rate disables limiting, zero rejects everything.
// exemptKeys bypass the limiter.
func NewRateLimitMiddleware(ratePerSecond int, interval time.Duration, exemptKeys ...string) func(http.Handler) http.Handler {
	return newRateLimiter(ratePerSecond, interval, exemptKeys...).rateLimitHandler
}

func newRateLimiter(ratePerSecond int, interval time.Duration, exemptKeys ...string) *RateLimitMiddleware {
	var limit rate.Limit
	switch {
	case ratePerSecond < 0:
		limit = rate.Inf
	case ratePerSecond == 0:
		limit = 0
	default:
		limit = rate.Every(interval / time.Duration(ratePerSecond))
	}

	rl := &RateLimitMiddleware{
		limiters:    make(map[string]*rate.Limiter),
		rateLimit:   limit,
		burstSize:   ratePerSecond,
		cleanupTick: time.NewTicker(5 * time.Minute),
		exemptKeys:  make(map[string]bool, len(exemptKeys)),
	}
	for _, k := range exemptKeys {
		if k != "" {
			rl.exemptKeys[k] = true
		}
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimitMiddleware) getLimiter(apiKey string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[apiKey]
	rl.mu.RUnlock()
	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if limiter, exists := rl.limiters[apiKey]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(rl.rateLimit, rl.burstSize)
	rl.limiters[apiKey] = limiter
	return limiter
}

func (rl *RateLimitMiddleware) rateLimitHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.URL.Query().Get("key")
		if apiKey == "" {
			apiKey = noKeyBucket
		}
		if rl.exemptKeys[apiKey] {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.getLimiter(apiKey).Allow() {
			rl.sendRateLimitExceeded(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfter is the wait for one token, in whole seconds.
func (rl *RateLimitMiddleware) retryAfter() int {
	switch rl.rateLimit {
	case 0:
		return int(time.Hour.Seconds())
	case rate.Inf:
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(rl.rateLimit))))
}

func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(models.NewResponse(http.StatusTooManyRequests, nil,
		"Rate limit exceeded. Please try again later."))
}

// cleanup drops limiters with a full bucket; they are recreated on demand.
func (rl *RateLimitMiddleware) cleanup() {
	for range rl.cleanupTick.C {
		rl.mu.Lock()
		for key, limiter := range rl.limiters {
			if limiter.Tokens() >= float64(rl.burstSize) {
				delete(rl.limiters, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Stop stops the cleanup ticker.
func (rl *RateLimitMiddleware) Stop() {
	if rl.cleanupTick != nil {
		rl.cleanupTick.Stop()
	}
}
