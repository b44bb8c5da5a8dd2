package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"family-llm/internal/app"
	"family-llm/internal/config"
	"family-llm/internal/db"
	apihttp "family-llm/internal/http"
	"family-llm/internal/intake"
	"family-llm/internal/llm"
	"family-llm/internal/store"
	"family-llm/internal/trip"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sessions, cleanup, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("session store init", zap.Error(err))
	}
	defer cleanup()

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	intakeSvc := intake.NewService(llmClient, sessions, logger)
	executor := trip.NewTurnExecutor(llmClient, logger)
	summaryGen := trip.NewLLMSummaryGenerator(llmClient, logger)
	orchestrator := trip.NewOrchestrator(executor, summaryGen, sessions, logger)
	manager := app.NewManager(intakeSvc, orchestrator, sessions, logger)

	sessionHandler := apihttp.NewSessionHandler(logger, manager)
	router := apihttp.NewRouter(logger, cfg.JWTSecret, sessionHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("session_backend", cfg.SessionBackend),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newSessionStore arma el backend de sesiones configurado. El cleanup cierra
// las conexiones que correspondan.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.SessionStore, func(), error) {
	noop := func() {}

	switch cfg.SessionBackend {
	case "file":
		fileStore, err := store.NewFileStore(cfg.SessionsDir)
		if err != nil {
			return nil, noop, err
		}
		return fileStore, noop, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, noop, err
		}
		return store.NewRedisStore(client, cfg.SessionTTL), func() { client.Close() }, nil

	case "postgres":
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return nil, noop, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store.NewPgStore(pool), pool.Close, nil

	default:
		if cfg.SessionBackend != "memory" {
			logger.Warn("unknown session backend, using memory", zap.String("backend", cfg.SessionBackend))
		}
		return store.NewMemoryStore(), noop, nil
	}
}
