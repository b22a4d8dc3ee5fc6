package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

// Options tunes server behaviour. Zero values fall back to defaults.
type Options struct {
	DefaultUserID      string
	CacheTTL           time.Duration
	CacheSize          int
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	service       *services.TrackerService
	rateLimiter   *rateLimiter
	defaultUserID string

	// Per-user snapshot cache, invalidated on change events.
	snapshotCache *lruCache[core.Snapshot]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, service *services.TrackerService, opts Options) *Server {
	if opts.DefaultUserID == "" {
		opts.DefaultUserID = "local"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 120
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger)(mux),
		},
		service:          service,
		rateLimiter:      newRateLimiter(opts.RateLimitPerMinute),
		defaultUserID:    opts.DefaultUserID,
		snapshotCache:    newLRUCache[core.Snapshot](opts.CacheSize, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/stats/summary", s.withMiddleware(s.handleStatsSummary))
	mux.HandleFunc("GET /api/stats/top-categories", s.withMiddleware(s.handleStatsTopCategories))
	mux.HandleFunc("GET /api/stats/trend", s.withMiddleware(s.handleStatsTrend))
	mux.HandleFunc("GET /api/stats/budgets", s.withMiddleware(s.handleStatsBudgets))
	mux.HandleFunc("GET /api/stats/recurring-projection", s.withMiddleware(s.handleStatsRecurringProjection))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withMiddleware(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/budgets", s.withMiddleware(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.withMiddleware(s.handleCreateBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.withMiddleware(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withMiddleware(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/recurring", s.withMiddleware(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.withMiddleware(s.handleCreateRecurring))
	mux.HandleFunc("PUT /api/recurring/{id}", s.withMiddleware(s.handleUpdateRecurring))
	mux.HandleFunc("POST /api/recurring/{id}/toggle", s.withMiddleware(s.handleToggleRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.withMiddleware(s.handleDeleteRecurring))

	mux.HandleFunc("GET /api/export", s.withMiddleware(s.handleExportCSV))

	return s
}

// snapshot returns the user's dataset, serving from cache when fresh.
func (s *Server) snapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	if snap, ok := s.snapshotCache.Get(userID); ok {
		return snap, nil
	}

	snap, err := s.service.Snapshot(ctx, userID)
	if err != nil {
		return core.Snapshot{}, err
	}

	s.snapshotCache.Set(userID, snap)
	return snap, nil
}

// InvalidateUser drops the cached snapshot for a user. The AMQP consumer
// calls this when a change event arrives, so stats recompute on next read.
func (s *Server) InvalidateUser(userID string) {
	s.snapshotCache.Delete(userID)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.snapshotCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		logger := applog.FromContext(r.Context()).With("request_id", generateRequestID())
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		applog.LogHTTPStart(ctx, logger, r, clientIP)

		// Mutating requests are rate limited.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		applog.LogHTTPEnd(ctx, logger, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ready")
}
