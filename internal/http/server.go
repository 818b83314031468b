// Package http exposes the JSON API over the ledger, report, and
// assistant services. All endpoints live under /api and are scoped to
// the user named by the X-User header.
package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"moneygrowth/internal/ai"
	"moneygrowth/internal/cache"
	"moneygrowth/internal/core"
	applog "moneygrowth/internal/log"
	"moneygrowth/internal/middleware/ratelimit"
	"moneygrowth/internal/middleware/security"
	"moneygrowth/internal/middleware/trace"
	"moneygrowth/internal/ports"
	"moneygrowth/internal/services"
	appweb "moneygrowth/web"
)

// Server wires the API routes, middleware chain, and report caches on
// top of the standard library server.
type Server struct {
	http.Server

	store     ports.Backend
	ledger    *services.Ledger
	assistant *ai.Client
	logger    *applog.Logger
	templates *template.Template

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	limitHits   *ratelimit.MetricsCollector
	tracer      *trace.Middleware
	started     time.Time

	monthCache *cache.LRUCache[core.MonthOverview]
	yearCache  *cache.LRUCache[core.YearOverview]
	caches     *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// The assistant client may be nil; assistant endpoints then answer 503.
func NewServer(addr string, store ports.Backend, ledger *services.Ledger, assistant *ai.Client, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:       store,
		ledger:      ledger,
		assistant:   assistant,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		detector:    security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		limitHits:   ratelimit.NewMetricsCollector(),
		started:     time.Now(),
		monthCache:  cache.NewLRUCache[core.MonthOverview](100, 5*time.Minute),
		yearCache:   cache.NewLRUCache[core.YearOverview](50, 5*time.Minute),
		caches:      cache.NewManager(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.caches.Register(s.monthCache)
	s.caches.Register(s.yearCache)
	s.caches.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/credits", s.handleListCredits)
	mux.HandleFunc("POST /api/credits", s.handleCreateCredit)
	mux.HandleFunc("DELETE /api/credits/{id}", s.handleDeleteCredit)
	mux.HandleFunc("GET /api/credits/payoff-order", s.handlePayoffOrder)
	mux.HandleFunc("GET /api/credits/{id}/schedule", s.handleCreditSchedule)
	mux.HandleFunc("POST /api/credits/{id}/toxicity", s.handleCreditToxicity)

	mux.HandleFunc("GET /api/insurance", s.handleListPolicies)
	mux.HandleFunc("POST /api/insurance", s.handleCreatePolicy)
	mux.HandleFunc("DELETE /api/insurance/{id}", s.handleDeletePolicy)

	mux.HandleFunc("GET /api/receipts", s.handleListReceipts)
	mux.HandleFunc("POST /api/receipts", s.handleCreateReceipt)
	mux.HandleFunc("PUT /api/receipts/{id}", s.handleUpdateReceipt)
	mux.HandleFunc("DELETE /api/receipts/{id}", s.handleDeleteReceipt)
	mux.HandleFunc("POST /api/receipts/scan", s.handleScanReceipt)
	mux.HandleFunc("POST /api/receipts/{id}/generate", s.handleGenerateFromReceipt)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.handleContributeToGoal)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{name}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/reports/month", s.handleMonthReport)
	mux.HandleFunc("GET /api/reports/year", s.handleYearReport)
	mux.HandleFunc("GET /api/reports/export.csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/reports/export.pdf", s.handleExportPDF)
	mux.HandleFunc("GET /api/reports/chart.png", s.handleChart)

	mux.HandleFunc("GET /api/alerts", s.handleListAlerts)
	mux.HandleFunc("POST /api/alerts/{id}/read", s.handleMarkAlertRead)
	mux.HandleFunc("GET /api/achievements", s.handleListAchievements)
	mux.HandleFunc("GET /api/insights", s.handleListInsights)

	mux.HandleFunc("POST /api/assistant", s.handleAssistant)
	mux.HandleFunc("POST /api/assistant/insight", s.handleMonthlyInsight)

	mux.HandleFunc("GET /api/state/export", s.handleExportState)
	mux.HandleFunc("POST /api/state/import", s.handleImportState)

	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("POST /api/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/groups", s.handleListGroups)
	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// middleware builds the outer chain: tracing first so every later
// stage sees the request ID, then security headers, rate limiting on
// mutations, and the request logger.
func (s *Server) middleware(next http.Handler) http.Handler {
	handler := applog.Middleware(s.logger)(next)
	handler = mutationsOnly(s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.flagSuspicious(handler)
	handler = s.tracer.Middleware(handler)
	return handler
}

// flagSuspicious logs requests matching known scanner and injection
// patterns. They proceed normally and only feed the metrics counters.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "suspicious request detected",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// mutationsOnly applies mw to writing methods and passes reads through.
func mutationsOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				limited.ServeHTTP(w, r)
			}
		})
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.limitHits.RecordHit()
	s.logger.WarnContext(r.Context(), "rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, retry later")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		writeError(w, http.StatusInternalServerError, "templates unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		s.logger.ErrorContext(r.Context(), "index rendering failed", applog.FieldError, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"checks": map[string]any{
			"cache": map[string]any{
				"month_entries": s.monthCache.Size(),
				"year_entries":  s.yearCache.Size(),
				"status":        "ok",
			},
			"rate_limiter": map[string]any{
				"active_clients": s.rateLimiter.ActiveClients(),
				"status":         "ok",
			},
		},
	})
}

// handleMetrics reports application and security counters in a
// Prometheus-style plain text format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	s.limitHits.UpdateClientCount(s.rateLimiter.GetMetrics().ClientCount)
	limitMetrics := s.limitHits.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds Last response time in microseconds\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP cache_entries Current report cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"month\"} %d\n", s.monthCache.Size())
	fmt.Fprintf(w, "cache_entries{type=\"year\"} %d\n\n", s.yearCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit rejections\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", limitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", limitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListUsers(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// invalidateReports drops the cached overviews touched by a mutation
// of a transaction dated d.
func (s *Server) invalidateReports(userID string, d core.Date) {
	s.monthCache.Delete(monthCacheKey(userID, d.Year(), d.Month()))
	s.yearCache.Delete(yearCacheKey(userID, d.Year()))
}

// invalidateGroupReports drops cached overviews for every member of
// the user's group; shared entries feed all of their reports.
func (s *Server) invalidateGroupReports(ctx context.Context, userID string, d core.Date) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		s.invalidateReports(userID, d)
		return
	}
	for _, g := range groups {
		for _, m := range g.Members {
			if m != userID {
				continue
			}
			for _, peer := range g.Members {
				s.invalidateReports(peer, d)
			}
			return
		}
	}
	s.invalidateReports(userID, d)
}

// Shutdown stops the background cleanup goroutines and then drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
