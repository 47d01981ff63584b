package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/chiragsdev/steward/internal/auth"
	"github.com/chiragsdev/steward/internal/department"
	"github.com/chiragsdev/steward/internal/ledger"
	"github.com/chiragsdev/steward/internal/member"
	"github.com/chiragsdev/steward/internal/metrics"
	"github.com/chiragsdev/steward/internal/ratelimit"
	"github.com/chiragsdev/steward/internal/receipt"
	"github.com/chiragsdev/steward/internal/report"
	"github.com/chiragsdev/steward/internal/ui"
	"github.com/chiragsdev/steward/internal/user"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Pinger is the health check's view of the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Users          *user.Store
	Departments    *department.Store
	Ledger         *ledger.Store
	Members        *member.Store
	Receipts       *receipt.Storage
	Reports        *report.Store
	LoginLimiter   *ratelimit.Limiter
	Metrics        *metrics.Metrics
	DB             Pinger
	AllowedOrigins []string
	MaxUploadSize  int64
	ReceiptsPath   string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(slogRequestLogger)
	r.Use(metricsMiddleware(deps.Metrics))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           86400,
	}).Handler)

	sessions := user.NewAuthAdapter(deps.Users)
	requireUser := auth.RequireUser(sessions)
	requireAdmin := auth.RequireAdmin(sessions)

	// Handlers.
	authH := newAuthHandler(deps.Users, deps.Departments, deps.LoginLimiter, deps.Metrics)
	usersH := newUsersHandler(deps.Users, deps.Departments)
	departmentsH := newDepartmentsHandler(deps.Departments, deps.Users)
	expensesH := newExpensesHandler(deps.Ledger, deps.Departments, deps.Receipts)
	incomeH := newIncomeHandler(deps.Ledger, deps.Departments)
	membersH := newMembersHandler(deps.Members)
	uploadsH := newUploadsHandler(deps.Receipts, deps.MaxUploadSize, deps.Metrics)
	reportsH := newReportsHandler(deps.Reports)

	// Health check pings the database.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.DB.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
		writeSuccess(w, http.StatusOK, "", map[string]any{"status": "ok"})
	})

	// Prometheus exposition.
	r.Get("/metrics", deps.Metrics.Handler().ServeHTTP)

	r.Route("/api/v1", func(ar chi.Router) {
		// Authentication. Signup enforces its own admin check so the first
		// account can be created on an empty database.
		ar.Post("/auth/login", authH.Login)
		ar.Post("/auth/signup", authH.Signup)
		ar.Post("/auth/logout", authH.Logout)

		// Session-authed routes.
		ar.Group(func(sr chi.Router) {
			sr.Use(requireUser)

			sr.Get("/auth/verify", authH.Verify)

			sr.Get("/departments", departmentsH.List)

			sr.Get("/expenses", expensesH.List)
			sr.Post("/expenses", expensesH.Create)
			sr.Put("/expenses/{id}", expensesH.Update)
			sr.Delete("/expenses/{id}", expensesH.Delete)

			sr.Get("/income", incomeH.List)
			sr.Post("/income", incomeH.Create)

			sr.Get("/members", membersH.List)

			sr.Post("/uploads/receipt", uploadsH.UploadReceipt)

			sr.Get("/reports/summary", reportsH.Summary)
			sr.Get("/reports/summary.csv", reportsH.SummaryCSV)
			sr.Get("/reports/summary.pdf", reportsH.SummaryPDF)
		})

		// Admin-only routes.
		ar.Group(func(adm chi.Router) {
			adm.Use(requireAdmin)

			adm.Get("/users", usersH.List)
			adm.Put("/users/{id}", usersH.Update)
			adm.Delete("/users/{id}", usersH.Delete)

			adm.Post("/departments", departmentsH.Create)
			adm.Put("/departments/{name}/archive", departmentsH.Archive)
			adm.Delete("/departments/{name}", departmentsH.Delete)

			adm.Post("/members/upload", membersH.Upload)
		})
	})

	// Stored receipt files.
	if deps.ReceiptsPath != "" {
		fs := http.StripPrefix("/uploads/receipts/", http.FileServer(http.Dir(deps.ReceiptsPath)))
		r.Get("/uploads/receipts/*", fs.ServeHTTP)
	}

	// Embedded single-page app.
	r.Get("/", ui.Handler().ServeHTTP)

	return r
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}

// metricsMiddleware records request counts and latencies labelled by the
// matched route pattern rather than the raw path.
func metricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.ObserveRequest(r.Method, pattern, ww.Status(), time.Since(start))
		})
	}
}
