/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. zap logger: Structured request logging
  4. CORS:       Cross-origin requests for frontend
  5. Identity:   Caller identity + admin capability from trusted headers

IDENTITY:
  Authentication itself is the upstream proxy's job. This layer trusts the
  X-User-Email / X-User-Name / X-User-Role headers that proxy injects and
  reduces them to a single caller record with one isAdmin capability
  (role == ADMIN, or membership in the configured allowlist). Handlers
  never re-derive authorization.

ROUTE GROUPS:
  /api/clock/*            Event submission and day status
  /api/windows/*          Pay-cycle windows
  /api/reports/biweekly   Paged window reports; /run for the cron trigger
  /api/admin/export*      CSV/XLSX exports (admin only)
  /api/scenarios/*        Demo datasets

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Caller is the reduced identity the upstream auth layer hands us.
type Caller struct {
	Email   string
	Name    string
	IsAdmin bool
}

type callerContextKey struct{}

// CallerFrom extracts the caller identity from a request context.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerContextKey{}).(Caller)
	return c, ok && c.Email != ""
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Email", "X-User-Name", "X-User-Role", "X-Cron-Secret"},
		AllowCredentials: true,
	}))
	r.Use(h.identity)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Clock routes
		r.Route("/clock", func(r chi.Router) {
			r.Post("/", h.SubmitEvent)
			r.Post("/status", h.GetDayStatus)
		})

		// Window routes
		r.Route("/windows", func(r chi.Router) {
			r.Get("/", h.ListWindows)
			r.Get("/current", h.CurrentWindow)
		})

		// Report routes
		r.Route("/reports/biweekly", func(r chi.Router) {
			r.Get("/", h.BiweeklyReport)
			r.Post("/run", h.RunBiweeklyReport)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/export", h.ExportCSV)
			r.Get("/export.xlsx", h.ExportXLSX)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// identity reduces the trusted auth headers to a Caller with a single
// admin capability, computed once per request.
func (h *Handler) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.ToLower(strings.TrimSpace(r.Header.Get("X-User-Email")))
		if email == "" {
			next.ServeHTTP(w, r)
			return
		}

		caller := Caller{
			Email:   email,
			Name:    strings.TrimSpace(r.Header.Get("X-User-Name")),
			IsAdmin: strings.EqualFold(r.Header.Get("X-User-Role"), "ADMIN") || h.Admins[email],
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerContextKey{}, caller)))
	})
}

// requestLogger logs one structured line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
