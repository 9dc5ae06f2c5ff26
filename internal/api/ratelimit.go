package api

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Save limits used when the server is built without explicit settings.
const (
	DefaultSaveLimit  = 6
	DefaultSaveWindow = time.Minute
)

// RateLimiter caps how often one caller may hit an endpoint. It keeps the
// timestamps of each caller's recent calls and admits a call while fewer than
// limit of them fall inside the trailing window.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  map[string][]time.Time
	now    func() time.Time
}

// NewRateLimiter allows limit calls per caller per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultSaveLimit
	}
	if window <= 0 {
		window = DefaultSaveWindow
	}
	return &RateLimiter{
		limit:  limit,
		window: window,
		calls:  make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a call for key if it is within the limit. When it is not,
// retryAfter is how long until the oldest counted call leaves the window.
func (rl *RateLimiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	recent := rl.calls[key]
	if len(recent) >= rl.limit {
		return false, recent[0].Add(rl.window).Sub(now)
	}
	rl.calls[key] = append(recent, now)
	return true, 0
}

// prune drops calls older than the window and forgets idle callers.
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)
	for key, ts := range rl.calls {
		i := 0
		for i < len(ts) && !ts[i].After(cutoff) {
			i++
		}
		if i == len(ts) {
			delete(rl.calls, key)
		} else if i > 0 {
			rl.calls[key] = ts[i:]
		}
	}
}

// Limit wraps next, answering 429 with Retry-After once the caller is over the limit.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := callerKey(r)
		ok, wait := rl.Allow(key)
		if !ok {
			secs := int((wait + time.Second - 1) / time.Second)
			slog.Warn("rate limited", "path", r.URL.Path, "caller", key, "retry_after", secs)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// callerKey identifies a caller by admin token fingerprint and client IP, so
// two operators behind one proxy keep separate budgets.
func callerKey(r *http.Request) string {
	ip := clientIP(r)
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		return "anon@" + ip
	}
	sum := sha256.Sum256([]byte(token))
	return "admin:" + hex.EncodeToString(sum[:4]) + "@" + ip
}

// clientIP prefers the first X-Forwarded-For hop, then the remote address without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
