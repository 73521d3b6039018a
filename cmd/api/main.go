// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quillchat/chat-platform/internal/auth"
	"github.com/quillchat/chat-platform/internal/config"
	"github.com/quillchat/chat-platform/internal/events"
	"github.com/quillchat/chat-platform/internal/handler"
	"github.com/quillchat/chat-platform/internal/middleware"
	"github.com/quillchat/chat-platform/internal/responder"
	"github.com/quillchat/chat-platform/internal/service"
	"github.com/quillchat/chat-platform/internal/store"
	"github.com/quillchat/chat-platform/pkg/logger"
	"github.com/quillchat/chat-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing")
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open database and migrate schema
	db, err := store.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	if err := store.Migrate(db); err != nil {
		log.Error("failed to migrate schema", zap.Error(err))
		os.Exit(1)
	}

	// Connect to NATS when configured; event publishing is optional
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.Connect(ctx, events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer publisher.Close()
	}

	// Initialize responder dispatch
	mockTable := responder.LoadMockTable(cfg.MockClaudePath, log)
	var gemini responder.Generator
	if cfg.GeminiAPIKey != "" {
		client, err := responder.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiTimeout)
		if err != nil {
			log.Warn("failed to create Gemini client, external generation disabled")
		} else {
			gemini = client
		}
	}
	dispatcher := responder.NewDispatcher(mockTable, gemini, log)

	// Initialize stores and services
	issuer := auth.NewTokenIssuer(cfg.JWTSecret)
	userStore := store.NewUserStore(db, log)
	conversationStore := store.NewConversationStore(db, log)
	messageStore := store.NewMessageStore(db, log)

	authSvc := service.NewAuthService(userStore, issuer, cfg.AccessTTL, cfg.RefreshTTL, log)
	chatSvc := service.NewChatService(userStore, conversationStore, messageStore, dispatcher, publisher, cfg.DailyMessageLimit, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, publisher)
	authHandler := handler.NewAuthHandler(authSvc, log)
	chatHandler := handler.NewChatHandler(chatSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes behind the per-address request-rate ceiling
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(issuer, auth.ScopeRefresh))
				r.Post("/refresh", authHandler.Refresh)
			})
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(middleware.Auth(issuer, auth.ScopeAccess))

			r.Post("/", chatHandler.Chat)
			r.Post("/start_conversation", chatHandler.StartConversation)
			r.Get("/history", chatHandler.History)
			r.Get("/conversations", chatHandler.Conversations)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
