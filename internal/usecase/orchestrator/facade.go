package orchestrator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/bayuh-ra/bbglo-backend/internal/usecase/purchaseorder"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/salesorder"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/stock"
)

// Facade is the single entry point for callers (HTTP, CLI). It delegates
// to the state machines and is the only place user-facing messages are
// derived from error kinds.
type Facade struct {
	sales    *salesorder.Machine
	purchase *purchaseorder.Machine
	log      *zap.Logger
}

func New(sales *salesorder.Machine, purchase *purchaseorder.Machine, log *zap.Logger) *Facade {
	return &Facade{sales: sales, purchase: purchase, log: log}
}

// TransitionRequest identifies one requested status change and who asked
// for it.
type TransitionRequest struct {
	EntityID     string `json:"entity_id"`
	TargetStatus string `json:"target_status"`
	ActorID      string `json:"actor_id"`
	ActorRole    string `json:"actor_role"`
}

func (f *Facade) CreateSalesOrder(ctx context.Context, in salesorder.CreateInput) (*salesorder.Order, error) {
	order, err := f.sales.Create(ctx, in)
	if err != nil {
		return nil, Classify(err)
	}
	return order, nil
}

// TransitionSalesOrder applies one transition. A StaleState outcome means
// another actor moved the order between our read and write; the machine
// re-reads on entry, so one retry resolves benign races (e.g. two staff
// confirming simultaneously) while still rejecting real conflicts.
func (f *Facade) TransitionSalesOrder(ctx context.Context, req TransitionRequest) (*salesorder.Order, error) {
	order, err := f.sales.ApplyTransition(ctx, req.EntityID, req.TargetStatus, req.ActorID, req.ActorRole)
	if errors.Is(err, salesorder.ErrStaleState) {
		f.log.Info("retrying stale sales order transition",
			zap.String("order_id", req.EntityID),
			zap.String("target", req.TargetStatus))
		order, err = f.sales.ApplyTransition(ctx, req.EntityID, req.TargetStatus, req.ActorID, req.ActorRole)
	}
	if err != nil {
		return nil, Classify(err)
	}
	return order, nil
}

func (f *Facade) GetSalesOrder(ctx context.Context, orderID string) (*salesorder.Order, error) {
	order, err := f.sales.Get(ctx, orderID)
	if err != nil {
		return nil, Classify(err)
	}
	return order, nil
}

func (f *Facade) DeleteSalesOrders(ctx context.Context, orderIDs []string, actorID string) (int64, error) {
	removed, err := f.sales.Delete(ctx, orderIDs, actorID)
	if err != nil {
		return 0, Classify(err)
	}
	return removed, nil
}

func (f *Facade) CreatePurchaseOrder(ctx context.Context, in purchaseorder.CreateInput) (*purchaseorder.PurchaseOrder, error) {
	po, err := f.purchase.Create(ctx, in)
	if err != nil {
		return nil, Classify(err)
	}
	return po, nil
}

func (f *Facade) GetPurchaseOrder(ctx context.Context, poID string) (*purchaseorder.PurchaseOrder, error) {
	po, err := f.purchase.Get(ctx, poID)
	if err != nil {
		return nil, Classify(err)
	}
	return po, nil
}

func (f *Facade) ApprovePurchaseOrder(ctx context.Context, poID, actorID string) (*purchaseorder.PurchaseOrder, error) {
	po, err := f.purchase.Approve(ctx, poID, actorID)
	if err != nil {
		return nil, Classify(err)
	}
	return po, nil
}

func (f *Facade) MarkPurchaseOrderDelivered(ctx context.Context, poID, actorID string) (*purchaseorder.PurchaseOrder, error) {
	po, err := f.purchase.MarkDelivered(ctx, poID, actorID)
	if err != nil {
		return nil, Classify(err)
	}
	return po, nil
}

func (f *Facade) CompletePurchaseOrder(ctx context.Context, poID, actorID string) (*purchaseorder.PurchaseOrder, error) {
	po, err := f.purchase.MarkCompleted(ctx, poID, actorID)
	if err != nil {
		return nil, Classify(err)
	}
	return po, nil
}

func (f *Facade) CancelPurchaseOrder(ctx context.Context, poID, actorID string) (*purchaseorder.PurchaseOrder, error) {
	po, err := f.purchase.Cancel(ctx, poID, actorID)
	if err != nil {
		return nil, Classify(err)
	}
	return po, nil
}

func (f *Facade) MarkPurchaseOrderStocked(ctx context.Context, poID, actorID string) (*purchaseorder.PurchaseOrder, error) {
	po, err := f.purchase.MarkStocked(ctx, poID, actorID)
	if err != nil {
		return nil, Classify(err)
	}
	return po, nil
}

func (f *Facade) RecordStockIn(ctx context.Context, poID, itemID string, quantity int, actorID string) (stock.Classification, error) {
	cls, err := f.purchase.RecordStockIn(ctx, poID, itemID, quantity, actorID)
	if err != nil {
		return "", Classify(err)
	}
	return cls, nil
}

func (f *Facade) RepurchaseUnfulfilled(ctx context.Context, poID, actorID string) (*purchaseorder.PurchaseOrder, error) {
	po, err := f.purchase.RepurchaseUnfulfilled(ctx, poID, actorID)
	if err != nil {
		return nil, Classify(err)
	}
	return po, nil
}

func (f *Facade) DeletePurchaseOrder(ctx context.Context, poID, actorID string) error {
	if err := f.purchase.Delete(ctx, poID, actorID); err != nil {
		return Classify(err)
	}
	return nil
}
