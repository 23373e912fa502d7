package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/assistant"
	"github.com/Nakshatra-thange/smooth/internal/cache"
	"github.com/Nakshatra-thange/smooth/internal/config"
	"github.com/Nakshatra-thange/smooth/internal/db"
	apihttp "github.com/Nakshatra-thange/smooth/internal/http"
	"github.com/Nakshatra-thange/smooth/internal/ledger"
	"github.com/Nakshatra-thange/smooth/internal/repository"
	"github.com/Nakshatra-thange/smooth/internal/service"
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

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	convRepo := repository.NewPgConversationRepository(pool)
	msgRepo := repository.NewPgMessageRepository(pool)
	txRepo := repository.NewPgTransactionRepository(pool)

	gateway := ledger.NewRPCGateway(cfg.RPCEndpoint, logger)
	assistantClient := assistant.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	balanceTTL := time.Duration(cfg.BalanceCacheTTLSeconds) * time.Second
	balanceCache := cache.NewMemoryBalanceCache(balanceTTL)
	var tokenStore service.RefreshTokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory fallbacks", zap.Error(err))
		} else {
			balanceCache = cache.NewRedisBalanceCache(redisClient, balanceTTL)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	walletSvc := service.NewWalletService(gateway, balanceCache, logger)
	executor := service.NewToolExecutor(walletSvc, gateway, txRepo, logger)
	confirmSvc := service.NewConfirmServiceWithPolling(
		gateway, txRepo, walletSvc, logger,
		time.Duration(cfg.PollIntervalSeconds)*time.Second,
		cfg.PollMaxAttempts,
	)
	chatSvc := service.NewChatService(assistantClient, userRepo, convRepo, msgRepo, executor, walletSvc, logger)
	txSvc := service.NewTransactionService(gateway, txRepo, confirmSvc, logger)

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	authSvc := service.NewAuthService(userRepo, jwtSvc, logger)

	authHandler := apihttp.NewAuthHandler(logger, authSvc, jwtSvc)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc)
	convHandler := apihttp.NewConversationHandler(logger, convRepo, msgRepo)
	txHandler := apihttp.NewTransactionHandler(logger, txSvc)
	walletHandler := apihttp.NewWalletHandler(logger, walletSvc, executor)
	userHandler := apihttp.NewUserHandler(logger, userRepo)

	router := apihttp.NewRouter(logger, jwtSvc, authHandler, chatHandler, convHandler, txHandler, walletHandler, userHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	// Los pollers en vuelo terminan antes de soltar el proceso.
	confirmSvc.Shutdown()
}
