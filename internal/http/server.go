package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Vammshi2/Roxiler-Systems/internal/cache"
	"github.com/Vammshi2/Roxiler-Systems/internal/core"
	applog "github.com/Vammshi2/Roxiler-Systems/internal/log"
	"github.com/Vammshi2/Roxiler-Systems/internal/services"
	appweb "github.com/Vammshi2/Roxiler-Systems/web"
)

// Dashboard is the query surface the handlers depend on.
type Dashboard interface {
	List(ctx context.Context, q services.ListQuery) (services.TransactionPage, error)
	Statistics(ctx context.Context, month string) (core.Statistics, error)
	BarChart(ctx context.Context, month string) ([]core.BucketCount, error)
	PieChart(ctx context.Context, month string) ([]core.CategoryCount, error)
	Combined(ctx context.Context, month string) (core.CombinedData, error)
}

// Seeder re-runs the feed import on operator request. Upsert semantics make
// repeated runs safe.
type Seeder interface {
	Run(ctx context.Context) (int, error)
}

// Options tune the aggregate response cache.
type Options struct {
	CacheTTL  time.Duration
	CacheSize int
}

type Server struct {
	http.Server
	templates *template.Template
	dashboard Dashboard
	seeder    Seeder

	rateLimiter *rateLimiter

	// Aggregates are cheap to cache: keyed by month filter, flushed on seed.
	statsCache    *cache.LRU[core.Statistics]
	combinedCache *cache.LRU[core.CombinedData]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, dashboard Dashboard, seeder Seeder, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		dashboard:        dashboard,
		seeder:           seeder,
		rateLimiter:      newRateLimiter(),
		statsCache:       cache.NewLRU[core.Statistics](opts.CacheSize, opts.CacheTTL),
		combinedCache:    cache.NewLRU[core.CombinedData](opts.CacheSize, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(template.FuncMap{"usd": formatUSD}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// JSON API
	mux.HandleFunc("/api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("/api/statistics", s.withMiddleware(s.handleStatistics))
	mux.HandleFunc("/api/bar-chart", s.withMiddleware(s.handleBarChart))
	mux.HandleFunc("/api/pie-chart", s.withMiddleware(s.handlePieChart))
	mux.HandleFunc("/api/combined-data", s.withMiddleware(s.handleCombinedData))
	mux.HandleFunc("/api/seed", s.withMiddleware(s.handleSeed))

	// Dashboard UI
	mux.HandleFunc("/", s.withMiddleware(s.handleDashboardPage))
	mux.HandleFunc("/ui/transactions", s.withMiddleware(s.handleTransactionsPartial))
	mux.HandleFunc("/ui/overview", s.withMiddleware(s.handleOverviewPartial))

	return s
}

// withMiddleware adds security headers, rate limiting on mutating requests,
// and request logging.
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

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; connect-src 'self'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// startCacheCleanup runs periodic cleanup for both aggregate caches.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			statsCleaned := s.statsCache.CleanExpired()
			combinedCleaned := s.combinedCache.CleanExpired()
			if statsCleaned > 0 || combinedCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"stats_entries_removed", statsCleaned,
					"combined_entries_removed", combinedCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func cacheKey(month string) string {
	if month == "" {
		return "all"
	}
	return month
}

// getStatistics serves statistics through the month-keyed cache.
func (s *Server) getStatistics(ctx context.Context, month string) (core.Statistics, error) {
	key := cacheKey(month)
	if data, found := s.statsCache.Get(key); found {
		slog.DebugContext(ctx, "Statistics cache hit", applog.FieldMonth, month)
		return data, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	data, err := s.dashboard.Statistics(cctx, month)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("statistics (month=%q): %w", month, err)
	}

	s.statsCache.Set(key, data)
	return data, nil
}

// getCombined serves the combined aggregates through the month-keyed cache.
func (s *Server) getCombined(ctx context.Context, month string) (core.CombinedData, error) {
	key := cacheKey(month)
	if data, found := s.combinedCache.Get(key); found {
		slog.DebugContext(ctx, "Combined cache hit", applog.FieldMonth, month)
		return data, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	data, err := s.dashboard.Combined(cctx, month)
	if err != nil {
		return core.CombinedData{}, fmt.Errorf("combined data (month=%q): %w", month, err)
	}

	s.combinedCache.Set(key, data)
	return data, nil
}

func (s *Server) flushCaches() {
	s.statsCache.Flush()
	s.combinedCache.Flush()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
