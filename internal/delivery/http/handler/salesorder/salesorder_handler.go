package salesorder

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bayuh-ra/bbglo-backend/internal/usecase/orchestrator"
	souc "github.com/bayuh-ra/bbglo-backend/internal/usecase/salesorder"
)

type Handler struct {
	uc *orchestrator.Facade
}

func New(uc *orchestrator.Facade) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var in souc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	out, err := h.uc.CreateSalesOrder(c.Context(), in)
	return writeOne(c, out, err, fiber.StatusCreated)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetSalesOrder(c.Context(), c.Params("id"))
	return writeOne(c, out, err, fiber.StatusOK)
}

func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var in struct {
		Status    string `json:"status"`
		ActorID   string `json:"actor_id"`
		ActorRole string `json:"actor_role"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	out, err := h.uc.TransitionSalesOrder(c.Context(), orchestrator.TransitionRequest{
		EntityID:     c.Params("id"),
		TargetStatus: in.Status,
		ActorID:      in.ActorID,
		ActorRole:    in.ActorRole,
	})
	return writeOne(c, out, err, fiber.StatusOK)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	var in struct {
		OrderIDs []string `json:"order_ids"`
		ActorID  string   `json:"actor_id"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	removed, err := h.uc.DeleteSalesOrders(c.Context(), in.OrderIDs, in.ActorID)
	if err != nil {
		return MapErr(err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}

func writeOne(c *fiber.Ctx, out *souc.Order, err error, okStatus int) error {
	if err != nil {
		return MapErr(err)
	}
	return c.Status(okStatus).JSON(out)
}

// MapErr translates orchestrator error kinds into HTTP status codes.
func MapErr(err error) error {
	var oerr *orchestrator.Error
	if !errors.As(err, &oerr) {
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}

	switch oerr.Kind {
	case orchestrator.KindInvalidInput:
		return fiber.NewError(fiber.StatusBadRequest, oerr.Message)
	case orchestrator.KindNotFound:
		return fiber.NewError(fiber.StatusNotFound, oerr.Message)
	case orchestrator.KindInvalidTransition,
		orchestrator.KindStaleState,
		orchestrator.KindCancellationExpired,
		orchestrator.KindNothingToRepurchase:
		return fiber.NewError(fiber.StatusConflict, oerr.Message)
	case orchestrator.KindStoreUnavailable:
		return fiber.NewError(fiber.StatusServiceUnavailable, oerr.Message)
	default:
		return fiber.NewError(fiber.StatusInternalServerError, oerr.Message)
	}
}
