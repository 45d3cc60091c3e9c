package salesorder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bayuh-ra/bbglo-backend/internal/events"
)

type Store interface {
	GetByID(ctx context.Context, orderID string) (*Order, error)
	Create(ctx context.Context, in CreateInput, total decimal.Decimal) (*Order, error)

	// ApplyTransition updates the row conditionally on the previously read
	// status. Returns ErrStaleState when no row matched (another actor
	// already moved the order).
	ApplyTransition(ctx context.Context, orderID, fromStatus string, patch TransitionPatch) (*Order, error)

	// DeleteCascade removes the orders and their deliveries. Missing IDs
	// are skipped; the count of removed orders is returned.
	DeleteCascade(ctx context.Context, orderIDs []string) (int64, error)
}

// Dispatcher creates-or-updates the delivery record for an order entering
// transit. Must be idempotent per order.
type Dispatcher interface {
	EnsureDelivery(ctx context.Context, orderID, actorID string) (deliveryID string, err error)
}

type Machine struct {
	store    Store
	dispatch Dispatcher
	policy   CancellationPolicy
	events   events.Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewMachine(store Store, dispatch Dispatcher, policy CancellationPolicy, pub events.Publisher, log *zap.Logger) *Machine {
	return &Machine{
		store:    store,
		dispatch: dispatch,
		policy:   policy,
		events:   pub,
		log:      log,
		now:      time.Now,
	}
}

// Create files a new Pending order from the checkout payload. The item
// unit prices are snapshots; the total is derived here, not trusted from
// the caller.
func (m *Machine) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if in.CustomerID == "" || len(in.Items) == 0 {
		return nil, ErrInvalidInput
	}

	total := decimal.Zero
	for _, it := range in.Items {
		if it.ItemID == "" || it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			return nil, ErrInvalidInput
		}
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	order, err := m.store.Create(ctx, in, total)
	if err != nil {
		return nil, err
	}

	m.publish(ctx, events.New(events.TypeOrderCreated, order.OrderID, in.CustomerID, map[string]any{
		"status":       order.Status,
		"total_amount": order.TotalAmount.String(),
	}))

	m.log.Info("sales order created",
		zap.String("order_id", order.OrderID),
		zap.String("customer_id", in.CustomerID))
	return order, nil
}

// ApplyTransition moves an order one step along the forward chain, or to
// Cancelled from Pending. Skipping states or moving backward fails with
// ErrInvalidTransition.
func (m *Machine) ApplyTransition(ctx context.Context, orderID, targetStatus, actorID, actorRole string) (*Order, error) {
	order, err := m.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	override := false

	if targetStatus == StatusCancelled {
		if order.Status != StatusPending {
			return nil, fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, order.Status)
		}
		if !m.policy.CanCancel(order, actorRole, now) {
			return nil, ErrCancellationWindowExpired
		}
		override = m.policy.IsOverride(order, actorRole, now)
	} else {
		next, ok := forwardChain[order.Status]
		if !ok || next != targetStatus {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, targetStatus)
		}
	}

	patch := TransitionPatch{
		Status: targetStatus,
		Phase:  phaseFor[targetStatus],
		At:     now,
		By:     actorID,
	}

	// The delivery record is ensured before the status commit so a failed
	// dispatch never leaves an order In Transit without one.
	if targetStatus == StatusInTransit {
		deliveryID, err := m.dispatch.EnsureDelivery(ctx, orderID, actorID)
		if err != nil {
			return nil, fmt.Errorf("ensure delivery: %w", err)
		}
		patch.DeliveryID = &deliveryID
	}

	updated, err := m.store.ApplyTransition(ctx, orderID, order.Status, patch)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"from": order.Status,
		"to":   targetStatus,
	}
	if override {
		fields["override"] = true
	}
	m.publish(ctx, events.New(events.TypeOrderTransitioned, orderID, actorID, fields))

	m.log.Info("sales order transitioned",
		zap.String("order_id", orderID),
		zap.String("from", order.Status),
		zap.String("to", targetStatus),
		zap.String("actor", actorID),
		zap.Bool("override", override))
	return updated, nil
}

func (m *Machine) Get(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, ErrInvalidInput
	}
	return m.store.GetByID(ctx, orderID)
}

// Delete bulk-removes orders together with their deliveries.
func (m *Machine) Delete(ctx context.Context, orderIDs []string, actorID string) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, ErrInvalidInput
	}

	removed, err := m.store.DeleteCascade(ctx, orderIDs)
	if err != nil {
		return 0, err
	}

	for _, id := range orderIDs {
		m.publish(ctx, events.New(events.TypeOrderDeleted, id, actorID, nil))
	}

	m.log.Info("sales orders deleted",
		zap.Int("requested", len(orderIDs)),
		zap.Int64("removed", removed),
		zap.String("actor", actorID))
	return removed, nil
}

func (m *Machine) publish(ctx context.Context, evt events.Event) {
	if err := m.events.Publish(ctx, evt); err != nil {
		// The store is the source of truth; a lost event only delays
		// consumers until their next re-fetch.
		m.log.Warn("event publish failed", zap.String("type", evt.Type), zap.Error(err))
	}
}
