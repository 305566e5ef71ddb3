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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/SENG-401-Lesson-Planner/Backend/internal/app/migrate"
	httpx "github.com/SENG-401-Lesson-Planner/Backend/internal/http"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/llm"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/repository/postgres"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/service/auth"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/service/chat"
	"github.com/SENG-401-Lesson-Planner/Backend/internal/service/responses"
	"github.com/SENG-401-Lesson-Planner/Backend/pkg/config"
	"github.com/SENG-401-Lesson-Planner/Backend/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)

	// Refuse to serve without the signing secret, database credentials,
	// and upstream API key.
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	provider := llm.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIOrgID, cfg.OpenAIProject, cfg.Model, log)

	authSvc := auth.New(repo, log, cfg.JWTSecret)
	responseSvc := responses.New(repo, log)
	chatSvc := chat.New(provider, authSvc, repo, log)

	router := httpx.NewRouter(log, authSvc, chatSvc, responseSvc, cfg.AllowedOrigins, pool.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
