package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bayuh-ra/bbglo-backend/internal/events"
	"github.com/bayuh-ra/bbglo-backend/internal/logger"
)

// auditlog tails every domain event on the exchange and writes one
// structured log line per event. Useful as a standalone audit trail and
// for watching a running system.
func main() {
	_ = godotenv.Load()

	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		log.Fatal("AMQP_URL is required")
	}
	exchange := os.Getenv("EVENTS_EXCHANGE")
	if exchange == "" {
		exchange = "bbglo.events"
	}
	binding := os.Getenv("EVENTS_BINDING")
	if binding == "" {
		binding = "#"
	}
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	zlog, err := logger.New(level)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer zlog.Sync()

	consumer, err := events.NewConsumer(amqpURL, exchange, binding, zlog)
	if err != nil {
		zlog.Fatal("amqp connect failed", zap.Error(err))
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = consumer.Run(ctx, func(evt events.Event) {
		zlog.Info("domain event",
			zap.String("event_id", evt.ID),
			zap.String("type", evt.Type),
			zap.String("entity_id", evt.EntityID),
			zap.String("actor", evt.Actor),
			zap.Time("occurred_at", evt.OccurredAt),
			zap.Any("fields", evt.Fields))
	})
	if err != nil {
		zlog.Fatal("consumer stopped", zap.Error(err))
	}
}
