package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"task_manager/internal/auth"
	"task_manager/internal/config"
	"task_manager/internal/handler"
	"task_manager/internal/service"
	"task_manager/internal/session"
	"task_manager/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	//PARSE ARGS
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the yaml config")

	flag.Parse()

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		log.Fatal("failed get config path from flags or CONFIG_PATH")
	}

	cfg := config.MustLoadConfig(configPath)

	//INIT LOGGER
	lgr := setupLogger(cfg.Env)
	lgr.Info("starting task manager", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//INIT DB
	st, err := newStorage(ctx, cfg, lgr)
	if err != nil {
		lgr.Error("failed to init storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	//INIT SESSIONS
	sessions := session.NewStore()
	go sessions.RunJanitor(ctx, cfg.Auth.SessionSweepInterval, lgr)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, sessions)

	srvc := service.NewService(st, auth.NewHasher(cfg.Auth.BcryptCost), tokens, sessions, service.Pagination{
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	})

	h := handler.NewHandler(srvc, tokens, lgr, handler.Options{
		Cookie: handler.CookieOptions{
			Name:   cfg.Cookie.Name,
			Path:   cfg.Cookie.Path,
			Domain: cfg.Cookie.Domain,
			Secure: cfg.SecureCookies(),
			MaxAge: tokens.RefreshTTL(),
		},
		AllowOrigins: cfg.CORS.AllowOrigins,
		RateLimitRPS: cfg.RateLimit.RPS,
		RateBurst:    cfg.RateLimit.Burst,
	})

	//INIT SERVER
	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      h.InitRoutes(),
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		lgr.Info("http server listening", slog.String("address", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		lgr.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			lgr.Error("http server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Error("graceful shutdown failed", slog.Any("error", err))
	}

	lgr.Info("task manager stopped")
}

func newStorage(ctx context.Context, cfg *config.Config, lgr *slog.Logger) (storage.Storage, error) {
	if cfg.Storage.Driver == "memory" {
		lgr.Warn("using in-memory storage, data is lost on restart")

		return storage.NewMemoryStorage(), nil
	}

	if cfg.Storage.Migrate {
		if err := storage.RunMigrations(ctx, cfg.Storage.DbURL); err != nil {
			return nil, err
		}
		lgr.Info("migrations applied")
	}

	return storage.NewPostgresStorage(ctx, cfg.Storage.DbURL)
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
