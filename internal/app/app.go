package app

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bayuh-ra/bbglo-backend/internal/config"
	"github.com/bayuh-ra/bbglo-backend/internal/db"
	httpdelivery "github.com/bayuh-ra/bbglo-backend/internal/delivery/http"
	"github.com/bayuh-ra/bbglo-backend/internal/events"
	"github.com/bayuh-ra/bbglo-backend/internal/logger"
)

type App struct {
	f    *fiber.App
	log  *zap.Logger
	pub  *events.AMQPPublisher
	port string
}

func New() *App {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	pool, err := db.NewPool(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}

	var pub events.Publisher = events.NopPublisher{}
	var amqpPub *events.AMQPPublisher
	if cfg.AMQPURL != "" {
		amqpPub, err = events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsExchange, zlog)
		if err != nil {
			zlog.Fatal("amqp connect failed", zap.Error(err))
		}
		pub = amqpPub
	} else {
		zlog.Warn("AMQP_URL not set, domain events disabled")
	}

	f := fiber.New(fiber.Config{
		AppName: "bbglo-backend",
	})

	f.Use(recover.New())
	f.Use(fiberlogger.New())

	httpdelivery.RegisterRoutes(f, cfg, pool, pub, zlog)

	return &App{f: f, log: zlog, pub: amqpPub, port: cfg.Port}
}

// Run serves HTTP until the context is cancelled, then drains in-flight
// requests.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.f.Listen(":" + a.port)
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.f.Shutdown()
	})

	return g.Wait()
}

func (a *App) Shutdown() {
	if a.pub != nil {
		a.pub.Close()
	}
	_ = a.log.Sync()
}
