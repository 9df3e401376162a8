package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"samarth-chat/internal/chat"
	"samarth-chat/internal/config"
	"samarth-chat/internal/database"
	"samarth-chat/internal/handlers"
	"samarth-chat/internal/repository"
	"samarth-chat/internal/router"
	"samarth-chat/internal/services"
	"samarth-chat/internal/session"
	"samarth-chat/internal/transcript"
	"samarth-chat/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Logger initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("🚀 Starting Samarth Q&A server...")
	logger.Info("✓ Environment variables loaded", zap.String("env", cfg.Env))

	// Optional backends stay nil-interface when unconfigured.
	var (
		dataset   services.Dataset = services.SampleDataset{}
		entries   session.EntryStore
		cache     services.Cache
		responder services.Responder
		pubsub    *redis.Client
	)

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("✗ PostgreSQL connection failed", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("✓ PostgreSQL connected")

		// ──── Step 3: Run Database Migrations ────
		migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
		err = database.RunMigrations(migrateCtx, pool, os.DirFS(cfg.MigrationsDir), logger)
		cancelMigrate()
		if err != nil {
			logger.Fatal("✗ Database migration failed", zap.Error(err))
		}
		logger.Info("✓ Database migrations applied")

		dataset = repository.NewDatasetRepo(pool)
		entries = repository.NewEntryRepo(pool)
	} else {
		logger.Info("✓ Using in-memory sample dataset (DATABASE_URL not set)")
	}

	// ──── Step 4: Initialize Redis Clients ────
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal("✗ Redis connection failed", zap.Error(err))
		}
		defer redisClients.Close()

		cache = services.NewRedisCache(redisClients.Cache, cfg.AnswerCacheTTL, logger)
		pubsub = redisClients.PubSub
		logger.Info("✓ Redis connected", zap.Duration("answer_cache_ttl", cfg.AnswerCacheTTL))
	}

	// ──── Step 5: Initialize Gemini Client ────
	if cfg.GeminiAPIKey != "" {
		geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs, logger)
		if err != nil {
			logger.Fatal("✗ Gemini client initialization failed", zap.Error(err))
		}
		defer geminiService.Close()
		responder = geminiService
		logger.Info("✓ Gemini client initialized", zap.String("model", cfg.GeminiModel))
	}

	// ──── Initialize Services ────
	answerService := services.NewAnswerService(dataset, responder, cache, logger)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(pubsub, logger)
	logger.Info("✓ WebSocket hub started", zap.Bool("redis_fanout", pubsub != nil))

	ordering := chat.CompletionOrder
	if cfg.OrderedReplies {
		ordering = chat.SubmissionOrder
	}
	sessions := session.NewStore(session.Config{
		Asker:     answerService,
		Publisher: wsHub,
		Entries:   entries,
		Renderer:  transcript.NewRenderer(cfg.MarkdownAnswers),
		Ordering:  ordering,
		IdleTTL:   cfg.SessionIdleTTL,
		Logger:    logger,
	})
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.RunSweeper(sweepCtx, time.Minute)

	// ──── Initialize Handlers ────
	askHandler := handlers.NewAskHandler(answerService, logger)
	widgetHandler := handlers.NewWidgetHandler(sessions, services.Suggestions, logger)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(askHandler, widgetHandler, wsHub, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	logger.Info(fmt.Sprintf("✓ Samarth Q&A ready on http://localhost:%s", cfg.Port),
		zap.Stringer("ordering", ordering),
		zap.Bool("markdown_answers", cfg.MarkdownAnswers))
	logger.Info(fmt.Sprintf("  Ask: POST http://localhost:%s/ask", cfg.Port))
	logger.Info(fmt.Sprintf("  WS:  ws://localhost:%s/ws", cfg.Port))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}

	// Let replies already requested land in their transcripts.
	stopSweep()
	sessions.Wait()
	logger.Info("✓ Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
