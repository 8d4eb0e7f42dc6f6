package web

import (
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %v", r.Method, r.URL.RequestURI(), rec.status, time.Since(start))
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("Panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Idle limiters are dropped once the table reaches maxClients; if none are
// idle the least recently seen ones go instead
const (
	maxClients  = 10000
	clientIdle  = 10 * time.Minute
	retryAfterS = "1"
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps a token bucket per client IP
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	limit   rate.Limit
	burst   int
	max     int
	now     func() time.Time
}

// newClientLimiter returns nil when rps is not positive, disabling limiting
func newClientLimiter(rps float64, burst int) *clientLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		clients: make(map[string]*clientEntry),
		limit:   rate.Limit(rps),
		burst:   burst,
		max:     maxClients,
		now:     time.Now,
	}
}

func (c *clientLimiter) allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry, ok := c.clients[key]
	if !ok {
		if len(c.clients) >= c.max {
			c.prune(now)
		}
		entry = &clientEntry{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// prune makes room for one more client. It must be called with mu held.
func (c *clientLimiter) prune(now time.Time) {
	for key, entry := range c.clients {
		if now.Sub(entry.lastSeen) > clientIdle {
			delete(c.clients, key)
		}
	}
	if len(c.clients) < c.max {
		return
	}

	keys := make([]string, 0, len(c.clients))
	for key := range c.clients {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.clients[keys[i]].lastSeen.Before(c.clients[keys[j]].lastSeen)
	})
	for _, key := range keys[:len(keys)-c.max+1] {
		delete(c.clients, key)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) limitRate(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", retryAfterS)
			writeJSON(w, http.StatusTooManyRequests, apiResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
