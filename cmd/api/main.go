package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "retailpos/api/swagger" // swagger docs
	"retailpos/internal/config"
	"retailpos/internal/database"
	"retailpos/internal/event"
	"retailpos/internal/handler"
	"retailpos/internal/middleware"
	"retailpos/internal/repository"
	"retailpos/internal/repository/memory"
	"retailpos/internal/service"
	"retailpos/internal/websocket"
	"retailpos/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// @title           Retail Inventory API
// @version         1.0
// @description     Multi-branch point of sale: sales with loyalty points, stock transfers between branches and the inventory audit trail.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store     repository.InventoryStore
		auditRepo repository.AuditRepository
	)
	closers := make([]func() error, 0, 2)

	switch cfg.StoreBackend {
	case config.BackendMemory:
		store = memory.NewSeeded()
		auditRepo = memory.NewAuditLog()
		log.Warn().Msg("store: in-memory, data is lost on restart")
	default:
		db, err := database.NewConnection(cfg.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, sqlDB.Close)
		}
		store = repository.NewInventoryStore(db)
		auditRepo = repository.NewAuditRepository(db)
		log.Info().Msg("store: postgres")
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	publishers := event.Multi{wsHub}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, events stay local")
			_ = client.Close()
		} else {
			redisPublisher := event.NewRedisPublisher(client, cfg.EventsChannel)
			publishers = append(publishers, redisPublisher)
			closers = append(closers, redisPublisher.Close)
			log.Info().Str("channel", cfg.EventsChannel).Msg("events: redis")
		}
	}

	opts := service.Options{
		SkuAllocationAttempts: cfg.SkuAllocationAttempts,
		TxTimeout:             cfg.TxTimeout,
	}
	auditLog := service.NewAuditLog(auditRepo)

	router := handler.NewRouter(handler.Services{
		Sales:     service.NewSaleService(store, service.NewLoyaltyLedger(), auditLog, publishers, opts),
		Transfers: service.NewTransferService(store, service.NewSkuAllocator(store), auditLog, publishers, opts),
		Items:     service.NewItemService(store, auditLog, publishers),
		Customers: service.NewCustomerService(store),
		Branches:  service.NewBranchService(store),
		Audit:     auditLog,
	}, handler.RouterConfig{
		JWTSecret:   middleware.JWTSecret(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
		Hub:         wsHub,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("close error")
		}
	}
	log.Info().
		Int64("audit_failures", auditLog.Failures()).
		Msg("server stopped")
}
