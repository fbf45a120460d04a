package server

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/dungeongen/internal/config"
)

// FailureLimiter locks out client IPs that keep sending rejected requests.
// Each lockout doubles the previous one up to the configured maximum.
type FailureLimiter struct {
	mu              sync.Mutex
	clients         map[string]*failureInfo
	maxFailures     int
	lockout         time.Duration
	maxLockout      time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

type failureInfo struct {
	failures     int
	lockedUntil  time.Time
	lockoutCount int
}

// NewFailureLimiter starts a limiter and its cleanup goroutine. Call Stop
// when done.
func NewFailureLimiter(cfg config.RateLimitConfig) *FailureLimiter {
	fl := &FailureLimiter{
		clients:         make(map[string]*failureInfo),
		maxFailures:     cfg.MaxFailures,
		lockout:         time.Duration(cfg.LockoutSeconds) * time.Second,
		maxLockout:      time.Duration(cfg.MaxLockoutSeconds) * time.Second,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	if fl.maxFailures <= 0 {
		fl.maxFailures = 5
	}
	if fl.lockout <= 0 {
		fl.lockout = 30 * time.Second
	}
	if fl.maxLockout < fl.lockout {
		fl.maxLockout = fl.lockout
	}

	go fl.cleanupLoop()

	return fl
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (fl *FailureLimiter) Stop() {
	fl.stopOnce.Do(func() { close(fl.stopCleanup) })
}

// IsLocked reports whether ip is locked out and for how much longer.
func (fl *FailureLimiter) IsLocked(ip string) (bool, time.Duration) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	info, ok := fl.clients[ip]
	if !ok {
		return false, 0
	}
	if remaining := time.Until(info.lockedUntil); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// RecordFailure counts a rejected request from ip and reports whether the
// ip is now locked out.
func (fl *FailureLimiter) RecordFailure(ip string) (bool, time.Duration) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	info, ok := fl.clients[ip]
	if !ok {
		info = &failureInfo{}
		fl.clients[ip] = info
	}

	if remaining := time.Until(info.lockedUntil); remaining > 0 {
		return true, remaining
	}

	info.failures++
	if info.failures < fl.maxFailures {
		return false, 0
	}

	info.lockoutCount++
	d := fl.lockout
	for i := 1; i < info.lockoutCount && d < fl.maxLockout; i++ {
		d *= 2
	}
	d = min(d, fl.maxLockout)

	info.lockedUntil = time.Now().Add(d)
	info.failures = 0
	return true, d
}

// RecordSuccess clears the failure count of ip. Earned lockouts still count
// toward the backoff.
func (fl *FailureLimiter) RecordSuccess(ip string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if info, ok := fl.clients[ip]; ok {
		info.failures = 0
	}
}

// Failures returns the current failure count for ip.
func (fl *FailureLimiter) Failures(ip string) int {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if info, ok := fl.clients[ip]; ok {
		return info.failures
	}
	return 0
}

func (fl *FailureLimiter) cleanupLoop() {
	ticker := time.NewTicker(fl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-fl.stopCleanup:
			return
		case <-ticker.C:
			fl.cleanup(time.Now())
		}
	}
}

// cleanup forgets clients that have been unlocked for ten minutes with no
// pending failures.
func (fl *FailureLimiter) cleanup(now time.Time) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	cutoff := now.Add(-10 * time.Minute)
	for ip, info := range fl.clients {
		if info.lockedUntil.Before(cutoff) && info.failures == 0 {
			delete(fl.clients, ip)
		}
	}
}
