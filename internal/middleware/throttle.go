package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the per-IP limiter map; it is reset when exceeded.
const maxTrackedClients = 10000

// IPThrottle limits requests per client IP in process. It guards the public
// auth endpoints against password guessing.
type IPThrottle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    time.Duration
	burst    int
}

// NewIPThrottle allows burst requests at once and one more every interval.
func NewIPThrottle(every time.Duration, burst int) *IPThrottle {
	return &IPThrottle{
		limiters: make(map[string]*rate.Limiter),
		every:    every,
		burst:    burst,
	}
}

func (t *IPThrottle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[key]
	if !ok {
		if len(t.limiters) >= maxTrackedClients {
			t.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(rate.Every(t.every), t.burst)
		t.limiters[key] = l
	}
	return l
}

func (t *IPThrottle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t == nil || t.every <= 0 {
			c.Next()
			return
		}

		r := t.limiter(c.ClientIP()).Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
			return
		}
		c.Next()
	}
}
