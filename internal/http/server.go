// Package http is the JSON API surface of the budget app.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/lonmstalker/local-budget-app/internal/analytics"
	"github.com/lonmstalker/local-budget-app/internal/cache"
	"github.com/lonmstalker/local-budget-app/internal/exchange"
	"github.com/lonmstalker/local-budget-app/internal/services"
	"github.com/lonmstalker/local-budget-app/internal/storage"
)

type Server struct {
	http.Server
	store       *storage.Store
	svc         *services.BudgetService
	porter      *exchange.Porter
	rateLimiter *rateLimiter

	// Report caches. Mutations invalidate both wholesale; reports are cheap
	// to rebuild and correctness beats cleverness here.
	overviewCache *cache.LRUCache[services.Overview]
	summaryCache  *cache.LRUCache[analytics.MonthSummary]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, store *storage.Store, svc *services.BudgetService, porter *exchange.Porter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:         store,
		svc:           svc,
		porter:        porter,
		rateLimiter:   newRateLimiter(),
		overviewCache: cache.NewLRUCache[services.Overview](16, 1*time.Minute),
		summaryCache:  cache.NewLRUCache[analytics.MonthSummary](100, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	api := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.withMiddleware(h))
	}

	api("GET /api/transactions", s.handleListTransactions)
	api("POST /api/transactions", s.handleCreateTransaction)
	api("GET /api/transactions/{id}", s.handleGetTransaction)
	api("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	api("GET /api/accounts", s.handleListAccounts)
	api("POST /api/accounts", s.handleCreateAccount)
	api("GET /api/accounts/{id}", s.handleGetAccount)
	api("PUT /api/accounts/{id}", s.handleUpdateAccount)
	api("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	api("POST /api/accounts/{id}/archive", s.handleArchiveAccount)

	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories", s.handleCreateCategory)
	api("PUT /api/categories/{id}", s.handleUpdateCategory)
	api("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api("GET /api/fixed-expenses", s.handleListFixedExpenses)
	api("GET /api/fixed-expenses/summary", s.handleExpenseSummary)
	api("POST /api/fixed-expenses", s.handleCreateFixedExpense)
	api("GET /api/fixed-expenses/{id}", s.handleGetFixedExpense)
	api("PUT /api/fixed-expenses/{id}", s.handleUpdateFixedExpense)
	api("DELETE /api/fixed-expenses/{id}", s.handleDeleteFixedExpense)
	api("POST /api/fixed-expenses/{id}/pay", s.handlePayFixedExpense)

	api("GET /api/planned-income", s.handleListPlannedIncome)
	api("GET /api/planned-income/forecast", s.handleIncomeForecast)
	api("POST /api/planned-income", s.handleCreatePlannedIncome)
	api("GET /api/planned-income/{id}", s.handleGetPlannedIncome)
	api("PUT /api/planned-income/{id}", s.handleUpdatePlannedIncome)
	api("DELETE /api/planned-income/{id}", s.handleDeletePlannedIncome)
	api("POST /api/planned-income/{id}/confirm", s.handleConfirmPlannedIncome)

	api("GET /api/overview", s.handleOverview)
	api("GET /api/reports/month", s.handleMonthReport)
	api("GET /api/reports/balance-series", s.handleBalanceSeries)

	api("GET /api/settings", s.handleGetSettings)
	api("PUT /api/settings", s.handleUpdateSettings)

	api("GET /api/export/json", s.handleExportJSON)
	api("POST /api/import/json", s.handleImportJSON)
	api("GET /api/export/csv", s.handleExportCSV)
	api("POST /api/import/csv", s.handleImportCSV)
	api("POST /api/maintenance/rebuild-balances", s.handleRebuildBalances)

	return s
}

// invalidateReports drops every cached report. Called after any mutation.
func (s *Server) invalidateReports() {
	s.overviewCache.Clear()
	s.summaryCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request IDs, security headers, rate limiting and
// request logging.
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

		// Rate limit mutations only; reads are cheap and cached.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(ctx, w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		level := slog.LevelInfo
		if rw.statusCode >= 500 {
			level = slog.LevelError
		} else if rw.statusCode >= 400 {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
