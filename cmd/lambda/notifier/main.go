package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/commerce-policy/internal/config"
	"github.com/example/commerce-policy/internal/email"
	"github.com/example/commerce-policy/internal/infrastructure/kinesis"
	"github.com/example/commerce-policy/internal/infrastructure/logger"
	"github.com/example/commerce-policy/internal/notification"
	"go.uber.org/zap"
)

var (
	notificationHandler *notification.Handler
	zapLogger           *zap.Logger
)

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err = logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	notificationHandler = notification.NewHandler(emailSvc, logger.Named(zapLogger, "notifier"))

	zapLogger.Info("lambda notifier initialized", zap.String("smtp", cfg.SMTP.Host+":"+cfg.SMTP.Port))
}

// handler turns orders-table stream records into notification emails.
// Failed records are reported back so only they are retried.
func handler(ctx context.Context, kinesisEvent events.KinesisEvent) (events.KinesisEventResponse, error) {
	var batchItemFailures []events.KinesisBatchItemFailure
	fail := func(record events.KinesisEventRecord) {
		batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
			ItemIdentifier: record.Kinesis.SequenceNumber,
		})
	}

	for _, record := range kinesisEvent.Records {
		evt, err := kinesis.ConvertFromKinesisRecord(record)
		if err != nil {
			zapLogger.Error("failed to convert record", zap.String("event_id", record.EventID), zap.Error(err))
			fail(record)
			continue
		}

		// removals and changes that do not move the status announce nothing
		if evt == nil {
			continue
		}

		if err := notificationHandler.Handle(ctx, *evt); err != nil {
			zapLogger.Error("failed to process event",
				zap.String("event_id", evt.ID),
				zap.String("event_type", evt.EventType),
				zap.Error(err),
			)
			fail(record)
		}
	}

	zapLogger.Info("batch processed",
		zap.Int("records", len(kinesisEvent.Records)),
		zap.Int("failed", len(batchItemFailures)),
	)

	return events.KinesisEventResponse{
		BatchItemFailures: batchItemFailures,
	}, nil
}

func main() {
	defer zapLogger.Sync()
	lambda.Start(handler)
}
