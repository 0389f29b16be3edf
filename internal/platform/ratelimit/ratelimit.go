// Package ratelimit はクライアントIP単位のトークンバケット。ログイン総当たり対策に使う。
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"LIBRA-backend/internal/platform/apierr"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*entry
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		clients: make(map[string]*entry),
		rate:    rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.clients[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[key] = e
	}
	now := l.now()
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Middleware は超過時 429 を返して後続を止める
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !l.allow(key) {
			logrus.WithFields(logrus.Fields{"client_ip": key, "path": c.FullPath()}).Warn("rate limit exceeded")
			c.Header("Retry-After", "1")
			apierr.Abort(c, http.StatusTooManyRequests, apierr.CodeRateLimited, "too many requests")
			return
		}
		c.Next()
	}
}

// Prune は idle 以上アクセスの無いクライアントを捨てる。捨てた件数を返す
func (l *Limiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	n := 0
	for k, e := range l.clients {
		if e.lastSeen.Before(cutoff) {
			delete(l.clients, k)
			n++
		}
	}
	return n
}

// StartCleanup は ctx が終わるまで interval ごとに Prune する
func (l *Limiter) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Prune(idle)
			}
		}
	}()
}
