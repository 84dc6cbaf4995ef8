package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/verbamind/verbamind/pkg/utils"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit enforces a per-client token bucket keyed by user id when
// authenticated, client IP otherwise. Idle buckets are evicted lazily.
func RateLimit(perSecond int) gin.HandlerFunc {
	var mu sync.Mutex
	clients := make(map[string]*clientLimiter)
	lastSweep := time.Now()

	return func(c *gin.Context) {
		key := UserID(c)
		if key == "" {
			key = c.ClientIP()
		}

		mu.Lock()
		if time.Since(lastSweep) > 5*time.Minute {
			for id, cl := range clients {
				if time.Since(cl.lastSeen) > 10*time.Minute {
					delete(clients, id)
				}
			}
			lastSweep = time.Now()
		}
		cl, ok := clients[key]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond*2)}
			clients[key] = cl
		}
		cl.lastSeen = time.Now()
		mu.Unlock()

		if !cl.limiter.Allow() {
			utils.SendError(c, http.StatusTooManyRequests,
				utils.NewAppError("RATE_LIMITED", "Rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}
