package purchaseorder

import (
	"github.com/gofiber/fiber/v2"

	sohandler "github.com/bayuh-ra/bbglo-backend/internal/delivery/http/handler/salesorder"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/orchestrator"
	pouc "github.com/bayuh-ra/bbglo-backend/internal/usecase/purchaseorder"
)

type Handler struct {
	uc *orchestrator.Facade
}

func New(uc *orchestrator.Facade) *Handler {
	return &Handler{uc: uc}
}

// actorBody carries who performed the action. Authz is handled upstream;
// the id is recorded for audit stamps.
type actorBody struct {
	ActorID string `json:"actor_id"`
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var in pouc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	out, err := h.uc.CreatePurchaseOrder(c.Context(), in)
	return writeOne(c, out, err, fiber.StatusCreated)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetPurchaseOrder(c.Context(), c.Params("id"))
	return writeOne(c, out, err, fiber.StatusOK)
}

func (h *Handler) Approve(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return err
	}
	out, uerr := h.uc.ApprovePurchaseOrder(c.Context(), c.Params("id"), actor)
	return writeOne(c, out, uerr, fiber.StatusOK)
}

func (h *Handler) MarkDelivered(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return err
	}
	out, uerr := h.uc.MarkPurchaseOrderDelivered(c.Context(), c.Params("id"), actor)
	return writeOne(c, out, uerr, fiber.StatusOK)
}

func (h *Handler) Complete(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return err
	}
	out, uerr := h.uc.CompletePurchaseOrder(c.Context(), c.Params("id"), actor)
	return writeOne(c, out, uerr, fiber.StatusOK)
}

func (h *Handler) Cancel(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return err
	}
	out, uerr := h.uc.CancelPurchaseOrder(c.Context(), c.Params("id"), actor)
	return writeOne(c, out, uerr, fiber.StatusOK)
}

func (h *Handler) MarkStocked(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return err
	}
	out, uerr := h.uc.MarkPurchaseOrderStocked(c.Context(), c.Params("id"), actor)
	return writeOne(c, out, uerr, fiber.StatusOK)
}

func (h *Handler) RecordStockIn(c *fiber.Ctx) error {
	var in struct {
		ItemID   string `json:"item_id"`
		Quantity int    `json:"quantity"`
		ActorID  string `json:"actor_id"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	cls, err := h.uc.RecordStockIn(c.Context(), c.Params("id"), in.ItemID, in.Quantity, in.ActorID)
	if err != nil {
		return sohandler.MapErr(err)
	}
	return c.JSON(fiber.Map{"classification": cls})
}

func (h *Handler) Repurchase(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return err
	}
	out, uerr := h.uc.RepurchaseUnfulfilled(c.Context(), c.Params("id"), actor)
	return writeOne(c, out, uerr, fiber.StatusCreated)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	actor, err := parseActor(c)
	if err != nil {
		return err
	}
	if uerr := h.uc.DeletePurchaseOrder(c.Context(), c.Params("id"), actor); uerr != nil {
		return sohandler.MapErr(uerr)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseActor(c *fiber.Ctx) (string, error) {
	var in actorBody
	if err := c.BodyParser(&in); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	return in.ActorID, nil
}

func writeOne(c *fiber.Ctx, out *pouc.PurchaseOrder, err error, okStatus int) error {
	if err != nil {
		return sohandler.MapErr(err)
	}
	return c.Status(okStatus).JSON(out)
}
