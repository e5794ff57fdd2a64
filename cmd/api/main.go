package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/commerce-policy/internal/api"
	"github.com/example/commerce-policy/internal/auth"
	"github.com/example/commerce-policy/internal/command"
	"github.com/example/commerce-policy/internal/config"
	"github.com/example/commerce-policy/internal/domain/event"
	"github.com/example/commerce-policy/internal/domain/order"
	"github.com/example/commerce-policy/internal/domain/pricing"
	"github.com/example/commerce-policy/internal/domain/promo"
	"github.com/example/commerce-policy/internal/domain/review"
	"github.com/example/commerce-policy/internal/infrastructure/cache"
	"github.com/example/commerce-policy/internal/infrastructure/kafka"
	"github.com/example/commerce-policy/internal/infrastructure/logger"
	"github.com/example/commerce-policy/internal/infrastructure/store"
	"github.com/example/commerce-policy/internal/projection"
	"github.com/example/commerce-policy/internal/query"
	"github.com/example/commerce-policy/internal/server"
	"go.uber.org/zap"
)

// stores is the persistence wiring selected by configuration.
type stores struct {
	orders    order.Store
	reviews   review.Store
	promos    promoCatalog
	summaries store.SummaryStore
	db        *sql.DB
}

// promoCatalog is a promo store that can also be seeded.
type promoCatalog interface {
	promo.Store
	Put(ctx context.Context, c *promo.Code) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("opening stores", zap.Error(err))
	}
	if st.db != nil {
		defer st.db.Close()
	}

	var promoStore promoCatalog = st.promos
	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer client.Close()
		promoStore = cache.NewPromoCache(client, st.promos, cfg.Redis.PromoTTL, logger.Named(zapLogger, "promo-cache"))
		zapLogger.Info("promo cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.PromoTTL))
	}

	// Seeding through the cache drops entries left over from a previous run.
	if err := seedPromos(ctx, cfg.Promo.CatalogPath, promoStore, zapLogger); err != nil {
		zapLogger.Fatal("seeding promo catalog", zap.Error(err))
	}

	var publishers []event.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publishers = append(publishers, producer)
		zapLogger.Info("publishing events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	// Without a broker, or with an in-memory read model that no other process
	// can reach, the summary projection runs in-process.
	if len(publishers) == 0 || cfg.Storage.Driver == config.DriverMemory {
		publishers = append(publishers, projection.NewProjector(st.summaries, logger.Named(zapLogger, "projector")))
	}
	publisher := event.Fanout(publishers...)

	policy, err := pricing.ParsePolicy(cfg.Pricing.TaxRate, cfg.Pricing.FreeShippingThreshold, cfg.Pricing.FlatShipping)
	if err != nil {
		zapLogger.Fatal("invalid pricing policy", zap.Error(err))
	}

	verifier := review.NewVerifier(st.orders)
	orderSvc := order.NewService(st.orders, publisher, logger.Named(zapLogger, "order"))
	reviewSvc := review.NewService(st.reviews, verifier, publisher, logger.Named(zapLogger, "review"))

	cmdHandler := command.NewHandler(
		pricing.NewCalculator(policy),
		promo.NewResolver(promoStore),
		orderSvc,
		reviewSvc,
		zapLogger,
	)
	queryHandler := query.NewHandler(orderSvc, reviewSvc, verifier, st.summaries, zapLogger)
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	router := api.NewRouter(api.NewHandlers(cmdHandler, queryHandler, zapLogger), jwtService, logger.Named(zapLogger, "http"))
	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	zapLogger.Info("server stopped gracefully")
}

func openStores(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (*stores, error) {
	st := &stores{}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := store.ConnectPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		zapLogger.Info("database connected")
		st.db = db
		st.orders = store.NewPostgresOrderStore(db)
		st.reviews = store.NewPostgresReviewStore(db)
		st.promos = store.NewPostgresPromoStore(db)
		st.summaries = store.NewPostgresReadStore(db)
	default:
		st.orders = store.NewMemoryOrderStore()
		st.reviews = store.NewMemoryReviewStore()
		st.promos = store.NewMemoryPromoStore()
		st.summaries = store.NewReadStore()
		zapLogger.Warn("using in-memory storage; data is lost on restart")
	}

	switch cfg.Storage.OrderDriver {
	case config.DriverDynamoDB:
		client, err := store.NewDynamoClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		st.orders = store.NewDynamoOrderStore(client, cfg.DynamoDB.OrdersTable)
		zapLogger.Info("orders stored in dynamodb", zap.String("table", cfg.DynamoDB.OrdersTable))
	case config.DriverMemory:
		if cfg.Storage.Driver != config.DriverMemory {
			st.orders = store.NewMemoryOrderStore()
		}
	case config.DriverPostgres:
		if st.db == nil {
			return nil, fmt.Errorf("ORDER_STORE_DRIVER=postgres requires STORAGE_DRIVER=postgres")
		}
	}

	return st, nil
}

func seedPromos(ctx context.Context, path string, catalog promoCatalog, zapLogger *zap.Logger) error {
	if path == "" {
		return nil
	}
	codes, err := promo.LoadCatalog(path)
	if err != nil {
		return err
	}
	for _, c := range codes {
		if err := catalog.Put(ctx, c); err != nil {
			return fmt.Errorf("storing promo %s: %w", c.Code, err)
		}
	}
	zapLogger.Info("promo catalog loaded", zap.String("path", path), zap.Int("codes", len(codes)))
	return nil
}
