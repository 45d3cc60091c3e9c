package purchaseorder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bayuh-ra/bbglo-backend/internal/events"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/expense"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/stock"
)

type Store interface {
	GetByID(ctx context.Context, poID string) (*PurchaseOrder, error)
	Create(ctx context.Context, in CreateInput, items []Item, totalCost decimal.Decimal) (*PurchaseOrder, error)

	// UpdateStatusIf moves the PO conditionally on the previously read
	// status, returning ErrStaleState when no row matched. A non-nil
	// dateDelivered is written alongside (Completed only).
	UpdateStatusIf(ctx context.Context, poID, fromStatus, toStatus string, dateDelivered *time.Time) (*PurchaseOrder, error)

	ListStockIn(ctx context.Context, poID string) ([]stock.InRecord, error)

	// AddStockIn appends a receipt and applies the matching inventory
	// increase in the same transaction.
	AddStockIn(ctx context.Context, rec stock.InRecord, stockedBy string) error

	// DeleteCascade reverses inventory increases from the PO's stock-in
	// records, deletes those records, and deletes the PO row with its
	// items, all in one transaction. Returns false when the PO was already
	// gone. The expense retraction happens before this call.
	DeleteCascade(ctx context.Context, poID string) (bool, error)
}

// ExpenseSync mirrors approval/cancellation into the expense ledger.
// Satisfied by expense.LedgerSync.
type ExpenseSync interface {
	CreateForApproval(ctx context.Context, in expense.ApprovalInput) (*expense.Expense, bool, error)
	RetractForCancellation(ctx context.Context, poID, actorID string) error
}

type Machine struct {
	store    Store
	expenses ExpenseSync
	events   events.Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewMachine(store Store, expenses ExpenseSync, pub events.Publisher, log *zap.Logger) *Machine {
	return &Machine{
		store:    store,
		expenses: expenses,
		events:   pub,
		log:      log,
		now:      time.Now,
	}
}

// Create files a new Pending purchase order. Line totals and the total
// cost are derived here so total_cost always equals the item sum.
func (m *Machine) Create(ctx context.Context, in CreateInput) (*PurchaseOrder, error) {
	if in.SupplierID == "" || in.OrderedBy == "" || len(in.Items) == 0 {
		return nil, ErrInvalidInput
	}

	items := make([]Item, 0, len(in.Items))
	totalCost := decimal.Zero
	for _, it := range in.Items {
		if it.ItemID == "" || it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			return nil, ErrInvalidInput
		}
		lineTotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, Item{
			ItemID:     it.ItemID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: lineTotal,
		})
		totalCost = totalCost.Add(lineTotal)
	}

	po, err := m.store.Create(ctx, in, items, totalCost)
	if err != nil {
		return nil, err
	}

	m.publish(ctx, events.New(events.TypePOCreated, po.POID, in.OrderedBy, map[string]any{
		"supplier_id": in.SupplierID,
		"total_cost":  totalCost.String(),
	}))

	m.log.Info("purchase order created",
		zap.String("po_id", po.POID),
		zap.String("supplier_id", in.SupplierID))
	return po, nil
}

func (m *Machine) Get(ctx context.Context, poID string) (*PurchaseOrder, error) {
	if poID == "" {
		return nil, ErrInvalidInput
	}
	return m.store.GetByID(ctx, poID)
}

// Approve moves a Pending PO to Approved and books its cost in the expense
// ledger. The ledger sync is idempotent, so a retried approval after a
// failed expense write cannot double-book.
func (m *Machine) Approve(ctx context.Context, poID, actorID string) (*PurchaseOrder, error) {
	po, err := m.transition(ctx, poID, StatusApproved, actorID, nil)
	if err != nil {
		return nil, err
	}

	if _, _, err := m.expenses.CreateForApproval(ctx, expense.ApprovalInput{
		POID:       po.POID,
		TotalCost:  po.TotalCost,
		SupplierID: po.SupplierID,
		OrderedBy:  po.OrderedBy,
	}); err != nil {
		return nil, fmt.Errorf("expense sync: %w", err)
	}

	return po, nil
}

// MarkDelivered applies the transitional reporting label.
func (m *Machine) MarkDelivered(ctx context.Context, poID, actorID string) (*PurchaseOrder, error) {
	return m.transition(ctx, poID, StatusDelivered, actorID, nil)
}

// MarkCompleted finishes receiving: sets Completed and date_delivered.
func (m *Machine) MarkCompleted(ctx context.Context, poID, actorID string) (*PurchaseOrder, error) {
	now := m.now()
	return m.transition(ctx, poID, StatusCompleted, actorID, &now)
}

// Cancel retracts the linked expense and then cancels the PO. Not allowed
// once goods are received (Completed/Stocked) or the PO is already
// Cancelled.
func (m *Machine) Cancel(ctx context.Context, poID, actorID string) (*PurchaseOrder, error) {
	po, err := m.store.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if !cancellable(po.Status) {
		return nil, fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, po.Status)
	}

	// Retract before the status flip so no Cancelled PO ever has a live
	// expense. Retraction is idempotent if the flip below fails.
	if err := m.expenses.RetractForCancellation(ctx, poID, actorID); err != nil {
		return nil, fmt.Errorf("expense retract: %w", err)
	}

	updated, err := m.store.UpdateStatusIf(ctx, poID, po.Status, StatusCancelled, nil)
	if err != nil {
		return nil, err
	}

	m.publishTransition(ctx, poID, actorID, po.Status, StatusCancelled)
	return updated, nil
}

// RecordStockIn appends a receipt against a Completed PO and applies the
// inventory increase. The per-item classification is re-derived and
// published so consumers can track fulfillment without polling.
func (m *Machine) RecordStockIn(ctx context.Context, poID, itemID string, quantity int, actorID string) (stock.Classification, error) {
	if poID == "" || itemID == "" || quantity <= 0 {
		return "", ErrInvalidInput
	}

	po, err := m.store.GetByID(ctx, poID)
	if err != nil {
		return "", err
	}
	if po.Status != StatusCompleted {
		return "", fmt.Errorf("%w: stock-in requires Completed, got %s", ErrInvalidTransition, po.Status)
	}

	ordered := 0
	for _, it := range po.Items {
		if it.ItemID == itemID {
			ordered = it.Quantity
			break
		}
	}
	if ordered == 0 {
		return "", fmt.Errorf("%w: item %s not on purchase order", ErrInvalidInput, itemID)
	}

	rec := stock.InRecord{PurchaseOrderID: poID, ItemID: itemID, Quantity: quantity}
	if err := m.store.AddStockIn(ctx, rec, actorID); err != nil {
		return "", err
	}

	records, err := m.store.ListStockIn(ctx, poID)
	if err != nil {
		return "", err
	}
	classification := stock.Classify(poID, itemID, ordered, records)

	m.publish(ctx, events.New(events.TypeStockInRecorded, poID, actorID, map[string]any{
		"item_id":        itemID,
		"quantity":       quantity,
		"classification": string(classification),
	}))

	m.log.Info("stock-in recorded",
		zap.String("po_id", poID),
		zap.String("item_id", itemID),
		zap.Int("quantity", quantity),
		zap.String("classification", string(classification)))
	return classification, nil
}

// MarkStocked explicitly closes a Completed PO once every item classifies
// as Stocked. The status is never derived automatically on record insert.
func (m *Machine) MarkStocked(ctx context.Context, poID, actorID string) (*PurchaseOrder, error) {
	po, err := m.store.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, po.Status, StatusStocked)
	}

	records, err := m.store.ListStockIn(ctx, poID)
	if err != nil {
		return nil, err
	}
	for _, it := range po.Items {
		if stock.Classify(poID, it.ItemID, it.Quantity, records) != stock.Stocked {
			return nil, fmt.Errorf("%w: item %s not fully received", ErrInvalidTransition, it.ItemID)
		}
	}

	updated, err := m.store.UpdateStatusIf(ctx, poID, StatusCompleted, StatusStocked, nil)
	if err != nil {
		return nil, err
	}

	m.publishTransition(ctx, poID, actorID, StatusCompleted, StatusStocked)
	return updated, nil
}

// RepurchaseUnfulfilled files a new Pending PO for every shortfall left on
// a Completed PO (same supplier, same unit prices) and marks the source
// Stocked. Fails with ErrNothingToRepurchase when all items are fully
// received.
func (m *Machine) RepurchaseUnfulfilled(ctx context.Context, poID, actorID string) (*PurchaseOrder, error) {
	po, err := m.store.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: repurchase requires Completed, got %s", ErrInvalidTransition, po.Status)
	}

	records, err := m.store.ListStockIn(ctx, poID)
	if err != nil {
		return nil, err
	}

	var shortfalls []ItemInput
	for _, it := range po.Items {
		received := stock.Received(poID, it.ItemID, records)
		if received < it.Quantity {
			shortfalls = append(shortfalls, ItemInput{
				ItemID:    it.ItemID,
				Quantity:  it.Quantity - received,
				UnitPrice: it.UnitPrice,
			})
		}
	}
	if len(shortfalls) == 0 {
		return nil, ErrNothingToRepurchase
	}

	remarks := fmt.Sprintf("Repurchase of unfulfilled items from %s", poID)
	newPO, err := m.Create(ctx, CreateInput{
		SupplierID: po.SupplierID,
		OrderedBy:  actorID,
		Remarks:    &remarks,
		Items:      shortfalls,
	})
	if err != nil {
		return nil, err
	}

	// The source PO is only closed once the replacement is filed.
	if _, err := m.store.UpdateStatusIf(ctx, poID, StatusCompleted, StatusStocked, nil); err != nil {
		return nil, err
	}

	m.publishTransition(ctx, poID, actorID, StatusCompleted, StatusStocked)
	m.log.Info("shortfall repurchased",
		zap.String("source_po", poID),
		zap.String("new_po", newPO.POID),
		zap.Int("items", len(shortfalls)))
	return newPO, nil
}

// Delete removes a PO and its children in cascade order: the expense is
// retracted first, then inventory reversal, stock-in records, items, and
// the PO row inside one store transaction. A missing PO is a no-op.
func (m *Machine) Delete(ctx context.Context, poID, actorID string) error {
	if poID == "" {
		return ErrInvalidInput
	}

	if err := m.expenses.RetractForCancellation(ctx, poID, actorID); err != nil {
		return fmt.Errorf("%w: expense retract: %v", ErrCascadeDeleteFailed, err)
	}

	removed, err := m.store.DeleteCascade(ctx, poID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCascadeDeleteFailed, err)
	}
	if !removed {
		return nil
	}

	m.publish(ctx, events.New(events.TypePODeleted, poID, actorID, nil))
	m.log.Info("purchase order deleted", zap.String("po_id", poID), zap.String("actor", actorID))
	return nil
}

func (m *Machine) transition(ctx context.Context, poID, target, actorID string, dateDelivered *time.Time) (*PurchaseOrder, error) {
	po, err := m.store.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if !canTransition(po.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, po.Status, target)
	}

	updated, err := m.store.UpdateStatusIf(ctx, poID, po.Status, target, dateDelivered)
	if err != nil {
		return nil, err
	}

	m.publishTransition(ctx, poID, actorID, po.Status, target)
	return updated, nil
}

func (m *Machine) publishTransition(ctx context.Context, poID, actorID, from, to string) {
	m.publish(ctx, events.New(events.TypePOTransitioned, poID, actorID, map[string]any{
		"from": from,
		"to":   to,
	}))
	m.log.Info("purchase order transitioned",
		zap.String("po_id", poID),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("actor", actorID))
}

func (m *Machine) publish(ctx context.Context, evt events.Event) {
	if err := m.events.Publish(ctx, evt); err != nil {
		m.log.Warn("event publish failed", zap.String("type", evt.Type), zap.Error(err))
	}
}
