package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// HTTPMetrics receives one observation per completed request.
type HTTPMetrics interface {
	RecordHTTPRequest(statusCode int, duration time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// NewLoggingMiddleware emits one structured line per request.
func NewLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sr.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// NewMetricsMiddleware records status and latency for every request.
func NewMetricsMiddleware(m HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)
			m.RecordHTTPRequest(sr.status, time.Since(start))
		})
	}
}

// subjectLimiter hands out one token bucket per authenticated subject.
// Buckets are never evicted; the subject space (active users) is small
// relative to what the map costs.
type subjectLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newSubjectLimiter(perMinute, burst int) *subjectLimiter {
	return &subjectLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (sl *subjectLimiter) allow(subject string) bool {
	sl.mu.Lock()
	l, ok := sl.limiters[subject]
	if !ok {
		l = rate.NewLimiter(sl.limit, sl.burst)
		sl.limiters[subject] = l
	}
	sl.mu.Unlock()
	return l.Allow()
}

// NewRateLimitMiddleware throttles per subject. It must run after auth so the
// subject is already in context; unauthenticated requests pass through and
// fail in the handler instead.
func NewRateLimitMiddleware(perMinute, burst int) func(http.Handler) http.Handler {
	sl := newSubjectLimiter(perMinute, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sub, ok := SubjectFromContext(r.Context()); ok {
				if !sl.allow(string(sub)) {
					writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
