package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/bayuh-ra/bbglo-backend/internal/events"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicate is returned by the store when the one-delivery-per-order
	// constraint rejects an insert. The dispatcher treats it as the
	// authoritative signal that another actor won the race.
	ErrDuplicate = errors.New("delivery already exists for order")
)

const StatusInTransit = "In Transit"

type Delivery struct {
	DeliveryID   string    `json:"delivery_id"`
	OrderID      string    `json:"order_id"`
	DriverID     *string   `json:"driver_id,omitempty"`
	DeliveryDate time.Time `json:"delivery_date"`
	Status       string    `json:"status"`
}

type Store interface {
	// FindByOrderID returns (nil, nil) when no delivery exists yet.
	FindByOrderID(ctx context.Context, orderID string) (*Delivery, error)
	Insert(ctx context.Context, d Delivery) error
	UpdateStatus(ctx context.Context, deliveryID, status string) error
}

type Dispatcher struct {
	store  Store
	events events.Publisher
	log    *zap.Logger
	now    func() time.Time
	randN  func(n int) int
}

func New(store Store, pub events.Publisher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		events: pub,
		log:    log,
		now:    time.Now,
		randN:  rand.Intn,
	}
}

// EnsureDelivery creates the delivery record for an order entering transit,
// or refreshes the status of the existing one. Idempotent per order_id: a
// second call never produces a second row.
func (d *Dispatcher) EnsureDelivery(ctx context.Context, orderID, actorID string) (string, error) {
	if orderID == "" {
		return "", ErrInvalidInput
	}

	existing, err := d.store.FindByOrderID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if err := d.store.UpdateStatus(ctx, existing.DeliveryID, StatusInTransit); err != nil {
			return "", err
		}
		return existing.DeliveryID, nil
	}

	now := d.now()
	delivery := Delivery{
		DeliveryID:   d.newDeliveryID(now),
		OrderID:      orderID,
		DriverID:     &actorID,
		DeliveryDate: now,
		Status:       StatusInTransit,
	}

	if err := d.store.Insert(ctx, delivery); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost the race; the winner's row is the delivery.
			winner, ferr := d.store.FindByOrderID(ctx, orderID)
			if ferr != nil {
				return "", ferr
			}
			if winner == nil {
				return "", err
			}
			if uerr := d.store.UpdateStatus(ctx, winner.DeliveryID, StatusInTransit); uerr != nil {
				return "", uerr
			}
			return winner.DeliveryID, nil
		}
		return "", err
	}

	if perr := d.events.Publish(ctx, events.New(events.TypeDeliveryScheduled, delivery.DeliveryID, actorID, map[string]any{
		"order_id": orderID,
		"status":   delivery.Status,
	})); perr != nil {
		d.log.Warn("event publish failed", zap.String("type", events.TypeDeliveryScheduled), zap.Error(perr))
	}

	d.log.Info("delivery scheduled",
		zap.String("delivery_id", delivery.DeliveryID),
		zap.String("order_id", orderID))
	return delivery.DeliveryID, nil
}

// newDeliveryID produces DEL-YYYYMMDD-#### with a 4-digit random suffix.
// Uniqueness is guaranteed by the order_id constraint, not by the suffix.
func (d *Dispatcher) newDeliveryID(now time.Time) string {
	return fmt.Sprintf("DEL-%s-%04d", now.Format("20060102"), 1000+d.randN(9000))
}
