package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/commerce-policy/internal/config"
	"github.com/example/commerce-policy/internal/infrastructure/kafka"
	"github.com/example/commerce-policy/internal/infrastructure/logger"
	"github.com/example/commerce-policy/internal/infrastructure/store"
	"github.com/example/commerce-policy/internal/projection"
	"go.uber.org/zap"
)

const defaultGroupID = "review-summary-projector"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if len(cfg.Kafka.Brokers) == 0 {
		zapLogger.Fatal("KAFKA_BROKERS is required")
	}
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = defaultGroupID
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.ConnectPostgres(ctx, cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	if err := store.Migrate(ctx, db); err != nil {
		zapLogger.Fatal("migrating database", zap.Error(err))
	}

	projector := projection.NewProjector(store.NewPostgresReadStore(db), logger.Named(zapLogger, "projector"))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, groupID, zapLogger)
	defer consumer.Close()

	zapLogger.Info("starting projector",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", groupID),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
			zapLogger.Error("consumer stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		zapLogger.Info("received shutdown signal")
	case <-done:
	}

	cancel()
	<-done
	zapLogger.Info("projector stopped")
}
