package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	goredislib "github.com/redis/go-redis/v9"

	"github.com/Deadlock-JunctionX/LockMoney/internal/adapter/handler"
	"github.com/Deadlock-JunctionX/LockMoney/internal/adapter/middleware"
	"github.com/Deadlock-JunctionX/LockMoney/internal/adapter/storage"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/auth"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/config"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/engine"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/lock"
	"github.com/Deadlock-JunctionX/LockMoney/internal/core/worker"
)

func main() {
	// 1. Load Config
	cfg := config.LoadConfig()
	if cfg.SecretKey == "" {
		slog.Error("❌ SECRET_KEY must be set")
		os.Exit(1)
	}

	// 2. Setup Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 3. Connect to Database
	dbPool, err := storage.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("❌ Database connection failed", "error", err)
		os.Exit(1)
	}

	// 4. Connect to Redis (the lock registry)
	redisOpts, err := goredislib.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("❌ Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := goredislib.NewClient(redisOpts)

	lockOpts := lock.DefaultOptions()
	lockOpts.Wait = cfg.LockWaitTimeout
	lockOpts.Lease = cfg.LockLease
	locks := lock.NewRedisManager(redisClient, lockOpts)

	// 5. Setup Repos, Auth & Engine
	userRepo := storage.NewUserRepository(dbPool)
	accountRepo := storage.NewAccountRepository(dbPool)
	trustedAppRepo := storage.NewTrustedAppRepository(dbPool)
	ledgerRepo := storage.NewLedgerRepository(dbPool)

	issuer := auth.NewTokenIssuer(cfg.SecretKey)
	resolver := auth.NewResolver(issuer, userRepo, trustedAppRepo)
	transferEngine := engine.New(accountRepo, ledgerRepo, locks)

	authHandler := &handler.AuthHandler{Resolver: resolver, Issuer: issuer}
	accountHandler := &handler.AccountHandler{Repo: accountRepo, Resolver: resolver}
	transferHandler := &handler.TransferHandler{Engine: transferEngine, Ledger: ledgerRepo}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("OK") })

	// 7. Routes
	api := app.Group("/v1")

	// Public
	api.Post("/login", authHandler.Login)
	api.Post("/apps/token", authHandler.IssueImpersonationToken)
	api.Post("/apps/lookup-account", accountHandler.AppLookup)

	// Protected
	private := api.Use(middleware.Protected(resolver))
	private.Get("/accounts", accountHandler.ListOwn)
	private.Get("/accounts/lookup", accountHandler.Lookup)
	private.Post("/transfer", transferHandler.Submit)
	private.Get("/accounts/:id/transactions", transferHandler.History)

	// 8. Start Worker
	worker.StartNotificationWorker(dbPool, cfg.WebhookURL)

	// Graceful shutdown: finish in-flight requests, then close the pool.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("🚀 Server starting", "env", cfg.Env, "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
		}
	}()

	<-stop
	slog.Info("🛑 Shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	dbPool.Close()
	if err := redisClient.Close(); err != nil {
		slog.Error("Redis close failed", "error", err)
	}

	slog.Info("👋 Server exited successfully")
}
