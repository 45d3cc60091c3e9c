package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/bayuh-ra/bbglo-backend/internal/config"
	pohandler "github.com/bayuh-ra/bbglo-backend/internal/delivery/http/handler/purchaseorder"
	sohandler "github.com/bayuh-ra/bbglo-backend/internal/delivery/http/handler/salesorder"
	"github.com/bayuh-ra/bbglo-backend/internal/events"
	"github.com/bayuh-ra/bbglo-backend/internal/repository/postgres"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/dispatch"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/expense"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/orchestrator"
	pouc "github.com/bayuh-ra/bbglo-backend/internal/usecase/purchaseorder"
	souc "github.com/bayuh-ra/bbglo-backend/internal/usecase/salesorder"
)

func RegisterRoutes(app *fiber.App, cfg config.Config, db *pgxpool.Pool, pub events.Publisher, log *zap.Logger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api")

	// Sales order wiring
	orderRepo := postgres.NewSalesOrderRepo(db)
	deliveryRepo := postgres.NewDeliveryRepo(db)
	dispatcher := dispatch.New(deliveryRepo, pub, log)
	policy := souc.NewCancellationPolicy(cfg.CancelWindow, cfg.PrivilegedRoles)
	salesMachine := souc.NewMachine(orderRepo, dispatcher, policy, pub, log)

	// Purchase order wiring
	poRepo := postgres.NewPurchaseOrderRepo(db)
	expenseRepo := postgres.NewExpenseRepo(db)
	ledger := expense.NewLedgerSync(expenseRepo, pub, log)
	poMachine := pouc.NewMachine(poRepo, ledger, pub, log)

	facade := orchestrator.New(salesMachine, poMachine, log)

	orderH := sohandler.New(facade)
	poH := pohandler.New(facade)

	// Sales order routes
	api.Post("/orders", orderH.Create)
	api.Get("/orders/:id", orderH.Get)
	api.Patch("/orders/:id/status", orderH.UpdateStatus)
	api.Delete("/orders", orderH.Delete)

	// Purchase order routes
	api.Post("/purchase-orders", poH.Create)
	api.Get("/purchase-orders/:id", poH.Get)
	api.Post("/purchase-orders/:id/approve", poH.Approve)
	api.Post("/purchase-orders/:id/deliver", poH.MarkDelivered)
	api.Post("/purchase-orders/:id/complete", poH.Complete)
	api.Post("/purchase-orders/:id/cancel", poH.Cancel)
	api.Post("/purchase-orders/:id/stock-in", poH.RecordStockIn)
	api.Post("/purchase-orders/:id/stocked", poH.MarkStocked)
	api.Post("/purchase-orders/:id/repurchase", poH.Repurchase)
	api.Delete("/purchase-orders/:id", poH.Delete)
}
