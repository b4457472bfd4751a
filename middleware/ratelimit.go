package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter keeps one token bucket per signed-in user.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*userLimiter
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewUserRateLimiter(perMinute, burst int, log logrus.FieldLogger) *UserRateLimiter {
	return &UserRateLimiter{
		limiters: make(map[string]*userLimiter),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
		log:      log.WithField("component", "ratelimit"),
	}
}

// Allow reports whether userID may act now, and prunes idle buckets.
func (l *UserRateLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, ul := range l.limiters {
		if now.Sub(ul.lastSeen) > l.idleTTL {
			delete(l.limiters, id)
		}
	}

	ul, ok := l.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.AllowN(now, 1)
}

// Forget drops a user's bucket, e.g. when their session ends.
func (l *UserRateLimiter) Forget(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, userID)
}

func (l *UserRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware limits by the current session's user. It must run after RequireSession.
func (l *UserRateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok {
			return c.Next()
		}
		if !l.Allow(sess.UserID) {
			l.log.WithField("user_id", sess.UserID).Warnf("⏳ [RATE] too many requests on %s", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, slow down",
			})
		}
		return c.Next()
	}
}
