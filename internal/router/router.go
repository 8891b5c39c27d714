// Package router assembles the HTTP routes and their access policies.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/swfilms/swfilms-go/internal/handler"
	"github.com/swfilms/swfilms-go/internal/metrics"
	"github.com/swfilms/swfilms-go/internal/middleware"
	"github.com/swfilms/swfilms-go/internal/model"
)

// Deps is everything the router needs from main.
type Deps struct {
	Auth   *handler.AuthHandler
	Movies *handler.MovieHandler
	Gate   *middleware.Gate

	CORSOrigins        []string
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool

	// Ping reports storage health for /health; nil means always healthy.
	Ping func(ctx context.Context) error
}

// New builds the application handler.
//
//	POST   /auth/register  public, rate limited
//	POST   /auth/login     public, rate limited
//	GET    /auth/me        authenticated
//	GET    /movies         public
//	GET    /movies/{id}    REGULAR or ADMIN
//	POST   /movies         ADMIN (import one episode from the catalog)
//	POST   /movies/new     ADMIN (manual entry)
//	POST   /movies/sync    ADMIN
//	PUT    /movies/{id}    ADMIN
//	DELETE /movies/{id}    ADMIN
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(d.CORSOrigins))

	r.Get("/", handleIndex)
	r.Get("/health", handleHealth(d.Ping))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(d.AuthRateLimitRPS, d.AuthRateLimitBurst))
			r.Post("/register", d.Auth.HandleRegister)
			r.Post("/login", d.Auth.HandleLogin)
		})
		r.With(d.Gate.Require(middleware.Authenticated())).Get("/me", d.Auth.HandleMe)
	})

	r.Route("/movies", func(r chi.Router) {
		r.With(d.Gate.Require(middleware.Public())).Get("/", d.Movies.HandleList)
		r.With(d.Gate.Require(middleware.RequiresRole(model.RoleRegular, model.RoleAdmin))).Get("/{id}", d.Movies.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(d.Gate.Require(middleware.RequiresRole(model.RoleAdmin)))
			r.Post("/", d.Movies.HandleCreateFromAPI)
			r.Post("/new", d.Movies.HandleCreate)
			r.Post("/sync", d.Movies.HandleSync)
			r.Put("/{id}", d.Movies.HandleUpdate)
			r.Delete("/{id}", d.Movies.HandleDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	return r
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name": "swfilms",
		"endpoints": []string{
			"POST /auth/register",
			"POST /auth/login",
			"GET /auth/me",
			"GET /movies",
			"GET /movies/{id}",
			"POST /movies",
			"POST /movies/new",
			"POST /movies/sync",
			"PUT /movies/{id}",
			"DELETE /movies/{id}",
		},
	})
}

func handleHealth(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := ping(ctx); err != nil {
				slog.Warn("health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
