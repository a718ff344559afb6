// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"taktsiv/internal/cache"
	"taktsiv/internal/ledger"
	"taktsiv/internal/voice"
)

// Server wraps http.Server with the ledger service, the voice intake and
// the read caches. Mutating handlers invalidate the caches they touch.
type Server struct {
	http.Server

	service *ledger.Service
	intake  *voice.Intake
	logger  *slog.Logger

	rateLimiter  *rateLimiter
	metrics      securityMetrics
	shutdownOnce sync.Once

	cacheManager   *cache.Manager
	balancesCache  *cache.LRUCache[balancesResponse]
	reportsCache   *cache.LRUCache[[]string]
	analyticsCache *cache.LRUCache[ledger.AnalyticsReport]
}

// Options carries server tunables. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int // mutating requests allowed per client IP per minute
}

// NewServer builds the API server. The intake may be nil when voice entry
// is disabled; its routes then answer 503.
func NewServer(addr string, service *ledger.Service, intake *voice.Intake, logger *slog.Logger, opts Options) *Server {
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}

	s := &Server{
		service:        service,
		intake:         intake,
		logger:         logger,
		rateLimiter:    newRateLimiter(opts.RateLimitPerMinute, time.Minute),
		cacheManager:   cache.NewManager(),
		balancesCache:  cache.NewLRUCache[balancesResponse](16, 30*time.Second),
		reportsCache:   cache.NewLRUCache[[]string](16, time.Minute),
		analyticsCache: cache.NewLRUCache[ledger.AnalyticsReport](16, time.Minute),
	}
	s.cacheManager.Register(s.balancesCache)
	s.cacheManager.Register(s.reportsCache)
	s.cacheManager.Register(s.analyticsCache)
	s.cacheManager.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/balances", s.withMiddleware(s.handleBalances))
	mux.HandleFunc("/api/expenses", s.withMiddleware(s.handleExpenses))
	mux.HandleFunc("/api/expenses/", s.withMiddleware(s.handleExpenseByID))
	mux.HandleFunc("/api/expenses/clear", s.withMiddleware(s.handleClearExpenses))
	mux.HandleFunc("/api/categories/", s.withMiddleware(s.handleCategoryReset))
	mux.HandleFunc("/api/allocation", s.withMiddleware(s.handleAllocation))
	mux.HandleFunc("/api/reports", s.withMiddleware(s.handleReports))
	mux.HandleFunc("/api/reports/", s.withMiddleware(s.handleReportByMonth))
	mux.HandleFunc("/api/rollover", s.withMiddleware(s.handleRollover))
	mux.HandleFunc("/api/analytics", s.withMiddleware(s.handleAnalytics))
	mux.HandleFunc("/api/smallcash", s.withMiddleware(s.handleSmallCash))
	mux.HandleFunc("/api/custom", s.withMiddleware(s.handleCustom))
	mux.HandleFunc("/api/custom/", s.withMiddleware(s.handleCustomMutation))
	mux.HandleFunc("/api/voice/listen", s.withMiddleware(s.handleVoiceListen))
	mux.HandleFunc("/api/voice/transcript", s.withMiddleware(s.handleVoiceTranscript))
	mux.HandleFunc("/api/voice/confirm", s.withMiddleware(s.handleVoiceConfirm))
	mux.HandleFunc("/api/voice/cancel", s.withMiddleware(s.handleVoiceCancel))
	mux.HandleFunc("/api/voice/status", s.withMiddleware(s.handleVoiceStatus))
	mux.HandleFunc("/api/import", s.withMiddleware(s.handleImport))
	mux.HandleFunc("/api/export", s.withMiddleware(s.handleExport))

	s.Addr = addr
	s.Handler = mux
	s.ReadTimeout = 15 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

// routes exposes the route table for tests.
func (s *Server) routes() http.Handler { return s.Server.Handler }

// Shutdown stops the cache cleanup and the rate limiter before draining
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
	})
	return s.Server.Shutdown(ctx)
}

func (s *Server) invalidateReads() {
	s.balancesCache.Delete(balancesCacheKey)
	s.reportsCache.Delete(reportsCacheKey)
	s.analyticsCache.Delete(analyticsCacheKey)
}

// withMiddleware adds security headers, rate limiting on mutating methods
// and request logging around a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, &s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request",
				"request_id", requestID,
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
		}

		s.logger.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, &s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				"request_id", requestID,
				"client_ip", clientIP,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method not allowed, use %s", allowed))
}
