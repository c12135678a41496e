package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/growtools/backend/internal/config"
	"github.com/growtools/backend/internal/extension"
	"github.com/growtools/backend/internal/handler"
	appMiddleware "github.com/growtools/backend/internal/middleware"
	"github.com/growtools/backend/internal/repository"
	"github.com/growtools/backend/internal/service"
	"github.com/growtools/backend/internal/ws"
	"github.com/growtools/backend/pkg/crypto"
	"github.com/growtools/backend/pkg/payment"
)

func main() {
	// Load .env file if present (for local development)
	loadDotEnv()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx := context.Background()

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database error: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("❌ Migration error: %v", err)
	}
	log.Println("✅ Database connected & migrated")

	// Initialize encryptor
	enc, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("❌ Encryption error: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	toolRepo := repository.NewToolRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	poolRepo := repository.NewPoolRepository(db)
	auditRepo := repository.NewAdminLogRepository(db)

	// Payment gateway: real Paygic when a merchant is configured, mock
	// otherwise.
	var gateway payment.Gateway
	if cfg.PaygicMerchantID != "" {
		gateway = payment.NewPaygicGateway(cfg.PaygicBaseURL, cfg.PaygicMerchantID, cfg.PaygicSecret)
		log.Println("✅ Paygic gateway configured")
	} else {
		gateway = payment.NewMockGateway()
		log.Println("⚠️  No PAYGIC_MERCHANT_ID set, using mock payment gateway")
	}

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.AdminEmail, cfg.AdminPassword, userRepo)
	if err := authSvc.SeedAdmin(ctx); err != nil {
		log.Fatalf("❌ Admin seed error: %v", err)
	}

	toolSvc := service.NewToolService(toolRepo)
	vault := service.NewCookieVault(toolRepo, auditRepo, enc)
	subSvc := service.NewSubscriptionService(subRepo, poolRepo, userRepo, toolRepo, auditRepo, gateway, enc)
	accessSvc := service.NewAccessService(userRepo, toolRepo, subSvc, vault)

	// Background expiry sweep (reporting only; authorization recomputes
	// expiry itself)
	sweeper := service.NewSweepService(subRepo, time.Hour)
	sweeper.Start(ctx)

	// Extension bridge: an in-process agent backs the WebSocket endpoint so
	// the injection path can be exercised end to end without a browser.
	agent := extension.NewAgent(extension.NewMemoryJar(), extension.NewMemoryTabs())
	bridge := extension.NewBridge(extension.NewLocalChannel(agent))

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	healthHandler := handler.NewHealthHandler(db)
	userHandler := handler.NewUserHandler(authSvc)
	toolsHandler := handler.NewToolsHandler(toolSvc)
	cookiesHandler := handler.NewCookiesHandler(accessSvc)
	subHandler := handler.NewSubscriptionHandler(subSvc)
	paymentHandler := handler.NewPaymentHandler(subSvc, gateway)
	adminHandler := handler.NewAdminHandler(db, vault, subSvc, auditRepo)
	bridgeHandler := ws.NewBridgeHandler(bridge, authSvc)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Health check and public routes (no auth)
	r.Get("/health", healthHandler.Check)
	r.Get("/api/tools", toolsHandler.List)
	r.Get("/api/tools/{toolId}", toolsHandler.Get)
	r.Post("/api/payment/webhook", paymentHandler.Webhook) // Public webhook

	// Auth routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.StrictRateLimiter())
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(authSvc))

		// Auth
		r.Post("/api/auth/logout", authHandler.Logout)
		r.Get("/api/auth/me", authHandler.Me)

		// Access gateway
		r.Get("/api/cookies/{toolId}", cookiesHandler.Get)

		// Subscriptions
		r.Get("/api/subscriptions", subHandler.List)
		r.Post("/api/subscriptions/{subId}/pause", subHandler.Pause)
		r.Post("/api/subscriptions/{subId}/resume", subHandler.Resume)

		// Payment
		r.Post("/api/payment/checkout", paymentHandler.Checkout)
		r.Get("/api/payment/status/{orderId}", paymentHandler.Status)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AdminOnly)
			r.Get("/api/admin/stats", adminHandler.GetStats)
			r.Get("/api/admin/logs", adminHandler.ListLogs)
			r.Post("/api/admin/tools", toolsHandler.Create)
			r.Put("/api/admin/tools/{toolId}", toolsHandler.Update)
			r.Put("/api/admin/tools/{toolId}/cookies", adminHandler.SetToolCookies)
			r.Post("/api/admin/subscriptions/{subId}/activate", adminHandler.ActivateSubscription)
			r.Post("/api/admin/subscriptions/{subId}/suspend", adminHandler.SuspendSubscription)
			r.Post("/api/admin/payment/simulate", paymentHandler.Simulate)
			r.Get("/api/users", userHandler.List)
			r.Post("/api/users", userHandler.Create)
			r.Delete("/api/users/{id}", userHandler.Delete)
		})
	})

	// WebSocket bridge (auth via query param)
	r.HandleFunc("/ws/bridge", bridgeHandler.Handle)

	// Start server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// WriteTimeout must be 0 for WebSocket connections (they are long-lived)
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("🛑 Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("🚀 GrowTools Backend (Go) listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("❌ Server error: %v", err)
	}
}

// loadDotEnv reads a .env file if it exists (simple implementation).
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
