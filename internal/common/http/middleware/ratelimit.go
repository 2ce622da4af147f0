package middleware

import (
	"sync"
	"time"

	appErr "github.com/Gooit/Interpreter/pkg/errors"
	"github.com/Gooit/Interpreter/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig controls request admission per client IP.
type RateLimitConfig struct {
	Enabled  bool    `yaml:"enabled"`
	PerIPRPS float64 `yaml:"perIPRPS"`
	Burst    int     `yaml:"burst"`
	// IdleTTL drops limiters of clients not seen for this long.
	IdleTTL time.Duration `yaml:"idleTTL"`
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	cfg     RateLimitConfig
	onLimit func()

	mu      sync.Mutex
	clients map[string]*clientLimiter
	lastGC  time.Time
	now     func() time.Time
}

// NewRateLimiter creates a per-IP limiter. onLimit, if set, is called for
// every rejected request.
func NewRateLimiter(cfg RateLimitConfig, onLimit func()) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		onLimit: onLimit,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether a request from ip may proceed now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	if now.Sub(rl.lastGC) > rl.cfg.IdleTTL {
		for key, cl := range rl.clients {
			if now.Sub(cl.lastSeen) > rl.cfg.IdleTTL {
				delete(rl.clients, key)
			}
		}
		rl.lastGC = now
	}
	cl, ok := rl.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.cfg.PerIPRPS), rl.cfg.Burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// RateLimitMiddleware rejects requests over the client's rate with TooManyRequests.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || !rl.cfg.Enabled || rl.cfg.PerIPRPS <= 0 {
			c.Next()
			return
		}
		if !rl.Allow(c.ClientIP()) {
			if rl.onLimit != nil {
				rl.onLimit()
			}
			response.AbortWithError(c, appErr.New(appErr.TooManyRequests))
			return
		}
		c.Next()
	}
}
