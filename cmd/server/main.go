package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/database"
	grpcServer "github.com/wekeepgrowing/semo-billing/internal/infrastructure/grpc"
	httpServer "github.com/wekeepgrowing/semo-billing/internal/infrastructure/http"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/messaging"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/metrics"
	providerFactory "github.com/wekeepgrowing/semo-billing/internal/infrastructure/provider"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	"github.com/wekeepgrowing/semo-billing/pkg/logger"
	pkgmessaging "github.com/wekeepgrowing/semo-billing/pkg/messaging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment))

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewMetrics(registry)

	// Billing provider
	billingProvider, err := providerFactory.NewFactory(cfg, zapLogger).GetProvider(provider.ProviderTypeStripe)
	if err != nil {
		zapLogger.Fatal("Failed to initialize billing provider", zap.Error(err))
	}

	// Use cases
	txManager := database.NewTxManager(db, zapLogger)
	ledger := usecase.NewUsageLedger(zapLogger.Named("ledger"), recorder)
	dispatcher := usecase.NewBillingEventDispatcher(txManager, ledger, zapLogger.Named("dispatcher"), recorder)
	services := httpServer.Services{
		Dispatcher:    dispatcher,
		StateMachine:  usecase.NewWebhookStateMachine(billingProvider, txManager, zapLogger.Named("webhook"), recorder),
		Usage:         usecase.NewUsageQueryService(txManager, ledger, zapLogger),
		Checkout:      usecase.NewCheckoutService(billingProvider, txManager, zapLogger),
		Subscriptions: usecase.NewSubscriptionService(txManager, zapLogger),
	}

	// Shut down on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, zapLogger)
	httpSrv := httpServer.NewServer(cfg, zapLogger, services, registry)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(grpcSrv.Start)
	g.Go(httpSrv.Start)

	if cfg.Messaging.Redis.Enabled {
		redisCfg := cfg.Messaging.Redis
		client, err := pkgmessaging.NewRedisClient(ctx, pkgmessaging.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer client.Close()

		consumer := messaging.NewConsumer(client, redisCfg.Channel, dispatcher, zapLogger.Named("consumer"))
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
		}
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
		return
	}

	zapLogger.Info("Servers shut down successfully")
}
