package middleware

import (
	"net/http"
	"sync"
	"time"

	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds a limiter per client IP.
type rateLimiterStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	perMin   int
	lastGC   time.Time
}

func newRateLimiterStore(perMin int) *rateLimiterStore {
	if perMin <= 0 {
		perMin = 200
	}
	return &rateLimiterStore{visitors: make(map[string]*visitor), perMin: perMin, lastGC: time.Now()}
}

// getLimiter returns the limiter for ip, creating one if needed. Idle
// entries are dropped so the map does not grow without bound.
func (s *rateLimiterStore) getLimiter(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastGC) > limiterIdleTTL {
		for key, v := range s.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(s.visitors, key)
			}
		}
		s.lastGC = now
	}

	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimitMiddleware allows perMin requests per minute per client IP, with
// a burst of the same size.
func RateLimitMiddleware(perMin int) gin.HandlerFunc {
	store := newRateLimiterStore(perMin)
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !store.getLimiter(ip, time.Now()).Allow() {
			utils.GetLogger().Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.ErrorResponse{Error: "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
