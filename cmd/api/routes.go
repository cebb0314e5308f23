package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/reelshelf/reelshelf-go/internal/handler"
	"github.com/reelshelf/reelshelf-go/internal/metrics"
	"github.com/reelshelf/reelshelf-go/internal/middleware"
	"github.com/reelshelf/reelshelf-go/internal/model"
)

// app holds the handlers and middleware the router is assembled from.
type app struct {
	auth        *handler.AuthHandler
	collections map[model.CollectionKind]*handler.CollectionHandler
	catalog     *handler.CatalogHandler // nil when no metadata provider is configured
	sessions    middleware.SessionReader
	// signinLimit keys on the transport address; forwarding headers are not trusted.
	signinLimit func(http.Handler) http.Handler
	corsOrigins []string
	ping        func(ctx context.Context) error
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Session(a.sessions))
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(a.signinLimit).Post("/signin", a.auth.HandleSignIn)
			r.Post("/signout", a.auth.HandleSignOut)
			r.Get("/session", a.auth.HandleSession)
			r.With(middleware.RequireSession).Get("/me", a.auth.HandleMe)
		})

		for kind, h := range a.collections {
			r.Route("/"+string(kind), func(r chi.Router) {
				r.Use(middleware.RequireSession)
				r.Get("/", h.HandleList)
				r.Post("/", h.HandleAdd)
				r.Delete("/", h.HandleRemove)
				r.Delete("/{id}", h.HandleRemove)
			})
		}

		if a.catalog != nil {
			r.Get("/movies/{id}", a.catalog.HandleMovie)
			r.Get("/tv/{id}", a.catalog.HandleTV)
			r.Get("/discover/{type}", a.catalog.HandleDiscover)
			r.Get("/search", a.catalog.HandleSearch)
			r.Get("/trending/{type}/{window}", a.catalog.HandleTrending)
			r.Get("/{type}/{id}/trailer", a.catalog.HandleTrailer)
		}
	})

	return r
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.ping != nil {
		if err := a.ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
