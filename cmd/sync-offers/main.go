package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/config"
	domainProvider "github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/database"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/provider"
	"github.com/wekeepgrowing/semo-billing/internal/usecase"
	"github.com/wekeepgrowing/semo-billing/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	offersFile := flag.String("file", cfg.Service.OffersFile, "offer catalog YAML file")
	verifyPrices := flag.Bool("verify-prices", false, "check each provider_price_id against Stripe before writing")
	flag.Parse()

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	f, err := os.Open(*offersFile)
	if err != nil {
		zapLogger.Fatal("Failed to open offer catalog", zap.String("path", *offersFile), zap.Error(err))
	}
	catalog, err := usecase.LoadOfferCatalog(f)
	f.Close()
	if err != nil {
		zapLogger.Fatal("Failed to load offer catalog", zap.String("path", *offersFile), zap.Error(err))
	}

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

	// Run migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	var billingProvider domainProvider.BillingProvider
	if *verifyPrices {
		billingProvider, err = provider.NewFactory(cfg, zapLogger).GetProvider(domainProvider.ProviderTypeStripe)
		if err != nil {
			zapLogger.Fatal("Failed to initialize billing provider", zap.Error(err))
		}
	}

	offerSync := usecase.NewOfferSyncService(database.NewTxManager(db, zapLogger), billingProvider, zapLogger)

	synced, err := offerSync.Sync(context.Background(), catalog)
	if err != nil {
		zapLogger.Fatal("Failed to sync offers", zap.Error(err))
	}

	zapLogger.Info("Offer sync completed",
		zap.String("path", *offersFile),
		zap.Int("offers_synced", synced),
		zap.Bool("prices_verified", *verifyPrices))
}
