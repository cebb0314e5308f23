package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/reelshelf/reelshelf-go/internal/config"
	"github.com/reelshelf/reelshelf-go/internal/handler"
	"github.com/reelshelf/reelshelf-go/internal/logger"
	"github.com/reelshelf/reelshelf-go/internal/middleware"
	"github.com/reelshelf/reelshelf-go/internal/model"
	"github.com/reelshelf/reelshelf-go/internal/repository"
	"github.com/reelshelf/reelshelf-go/internal/service"
	"github.com/reelshelf/reelshelf-go/internal/session"
	"github.com/reelshelf/reelshelf-go/internal/tmdb"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.LogLevel, cfg.LogFormat == "json")
	if envErr != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := repository.Migrate(ctx, db); err != nil {
			slog.Error("database migration failed", "error", err)
			os.Exit(1)
		}
	}

	sessions := session.NewIssuer(session.Config{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.SessionTTL,
		CookieName: cfg.SessionCookie,
		Secure:     cfg.IsProduction(),
	})

	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo)

	var catalog *service.CatalogService
	var catalogHandler *handler.CatalogHandler
	metadata, err := tmdb.NewClient(tmdb.Config{
		BaseURL:     cfg.TMDB.BaseURL,
		AccessToken: cfg.TMDB.AccessToken,
		APIKey:      cfg.TMDB.APIKey,
		Timeout:     cfg.TMDB.Timeout,
		CacheTTL:    tmdb.DetailTTL,
	})
	if err != nil {
		slog.Warn("metadata provider not configured, catalog routes disabled", "error", err)
	} else {
		catalog = service.NewCatalogService(metadata)
		catalogHandler = handler.NewCatalogHandler(catalog)
	}

	collections := make(map[model.CollectionKind]*handler.CollectionHandler)
	for _, kind := range []model.CollectionKind{model.Favorites, model.Watchlist} {
		repo, err := repository.NewCollectionRepository(db, kind)
		if err != nil {
			slog.Error("collection setup failed", "collection", kind, "error", err)
			os.Exit(1)
		}
		svc := service.NewCollectionService(kind, repo)
		if catalog != nil {
			collections[kind] = handler.NewCollectionHandler(svc, catalog)
		} else {
			collections[kind] = handler.NewCollectionHandler(svc, nil)
		}
	}

	a := &app{
		auth:        handler.NewAuthHandler(authService, sessions),
		collections: collections,
		catalog:     catalogHandler,
		sessions:    sessions,
		signinLimit: middleware.RateLimit(ctx, cfg.AuthRateRPS, cfg.AuthRateBurst),
		corsOrigins: cfg.CORSOrigins,
		ping:        db.PingContext,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
