/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. requestLogger: Structured request logging via zap
  5. CORS:       Cross-origin requests for frontend
  6. RequireAuth: Bearer JWT on everything under /api except /api/auth

ROUTE GROUPS:
  /api/auth/*         Register, login (public)
  /api/bases/*        Base catalog
  /api/asset-types/*  Asset type catalog
  /api/assets/*       Asset registry
  /api/transfers/*    Transfer workflow
  /api/assignments/*  Assignment lifecycle
  /api/purchases      Acquisition ledger
  /api/expenditures   Consumption ledger
  /api/dashboard/*    Balance metrics
  /api/audit-logs     Audit trail (ADMIN, BASE_COMMANDER)
  /api/admin/*        Operational sweeps (ADMIN)

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Auth middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/rangaswamythommandra/asset-management/inventory"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		// Everything else requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Route("/bases", func(r chi.Router) {
				r.Get("/", h.ListBases)
				r.Post("/", h.CreateBase)
				r.Get("/{id}", h.GetBase)
			})

			r.Route("/asset-types", func(r chi.Router) {
				r.Get("/", h.ListAssetTypes)
				r.Post("/", h.CreateAssetType)
				r.Get("/{id}", h.GetAssetType)
			})

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", h.ListAssets)
				r.Post("/", h.CreateAsset)
				r.Get("/{id}", h.GetAsset)
			})

			r.Route("/transfers", func(r chi.Router) {
				r.Get("/", h.ListTransfers)
				r.Post("/", h.CreateTransfer)
				r.Get("/{id}", h.GetTransfer)
				r.Post("/{id}/approve", h.ApproveTransfer)
				r.Post("/{id}/reject", h.RejectTransfer)
				r.Post("/{id}/complete", h.CompleteTransfer)
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", h.ListAssignments)
				r.Post("/", h.CreateAssignment)
				r.Post("/{id}/return", h.ReturnAssignment)
			})

			r.Route("/purchases", func(r chi.Router) {
				r.Get("/", h.ListPurchases)
				r.Post("/", h.CreatePurchase)
			})

			r.Route("/expenditures", func(r chi.Router) {
				r.Get("/", h.ListExpenditures)
				r.Post("/", h.CreateExpenditure)
			})

			r.Get("/dashboard/metrics", h.DashboardMetrics)

			r.With(RequireRole(inventory.RoleAdmin, inventory.RoleBaseCommander)).
				Get("/audit-logs", h.ListAuditLogs)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(inventory.RoleAdmin))
				r.Post("/assignments/expire", h.ExpireAssignments)
			})
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
