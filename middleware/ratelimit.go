package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LoginWindow 登录限流的统计窗口
const LoginWindow = time.Minute

// RateLimiter 按 IP 的滑动窗口计数
type RateLimiter struct {
	max    int
	window time.Duration

	mu    sync.Mutex
	store map[string][]time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewRateLimiter 每个 IP 在 window 内最多 max 次，后台每分钟清理过期数据
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		max:    max,
		window: window,
		store:  make(map[string][]time.Time),
		stop:   make(chan struct{}),
	}
	go rl.cleanupLoop(time.Minute)
	return rl
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.cleanup(now)
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, ts := range rl.store {
		if kept := prune(ts, now.Add(-rl.window)); len(kept) == 0 {
			delete(rl.store, ip)
		} else {
			rl.store[ip] = kept
		}
	}
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow 记录一次尝试，超过上限返回 false
func (rl *RateLimiter) Allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	ts := prune(rl.store[key], now.Add(-rl.window))
	if len(ts) >= rl.max {
		rl.store[key] = ts
		return false
	}
	rl.store[key] = append(ts, now)
	return true
}

// Close 停止后台清理，nil 接收者可安全调用
func (rl *RateLimiter) Close() {
	if rl == nil {
		return
	}
	rl.once.Do(func() { close(rl.stop) })
}

// Middleware 超限返回 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "Too many login attempts, try again later",
			})
			return
		}
		c.Next()
	}
}

// NewLoginLimiter 登录限流器，maxAttempts <= 0 时返回 nil 表示不限流。
// 调用方负责 Close。
func NewLoginLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	if maxAttempts <= 0 {
		return nil
	}
	return NewRateLimiter(maxAttempts, window)
}

// LoginRateLimit 登录接口限流中间件，rl 为 nil 时不限流
func LoginRateLimit(rl *RateLimiter) gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return rl.Middleware()
}
