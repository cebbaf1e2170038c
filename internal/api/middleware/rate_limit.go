package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"shiftgov/config"
	"shiftgov/pkg/response"
)

// RateLimitStore 分布式限流存储（Redis 滑动窗口）
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 按操作者（未认证时按 IP）限流
// store 可用时使用 Redis 滑动窗口，多实例共享配额；
// store 为 nil 或出错时降级为进程内令牌桶
func RateLimit(cfg config.RateLimitConfig, store RateLimitStore, logger *zap.Logger) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.RequestsPerSecond)
	}
	local := newLocalLimiter(rate.Limit(cfg.RequestsPerSecond), burst)

	return func(c *gin.Context) {
		key := rateLimitKey(c)

		if store != nil {
			allowed, err := store.CheckRateLimit(c.Request.Context(), key, burst, time.Second)
			if err == nil {
				if !allowed {
					rejectRateLimited(c)
					return
				}
				c.Next()
				return
			}
			logger.Warn("Redis 限流失败，降级为本地限流", zap.String("key", key), zap.Error(err))
		}

		if !local.get(key).Allow() {
			rejectRateLimited(c)
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if uid, ok := c.Get(CtxUserID); ok {
		if s, _ := uid.(string); s != "" {
			return fmt.Sprintf("user:%s", s)
		}
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

func rejectRateLimited(c *gin.Context) {
	response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
	c.Abort()
}

// ── 进程内令牌桶 ──

type localLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newLocalLimiter(limit rate.Limit, burst int) *localLimiter {
	return &localLimiter{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (l *localLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}
