package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bayuh-ra/bbglo-backend/internal/usecase/dispatch"
)

// DeliveryRepo implements dispatch.Store. A unique constraint on order_id
// enforces one delivery per order.
type DeliveryRepo struct {
	db *pgxpool.Pool
}

func NewDeliveryRepo(db *pgxpool.Pool) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

func (r *DeliveryRepo) FindByOrderID(ctx context.Context, orderID string) (*dispatch.Delivery, error) {
	var d dispatch.Delivery
	err := r.db.QueryRow(ctx, `
SELECT delivery_id, order_id, driver_id, delivery_date, status
FROM deliveries
WHERE order_id = $1`, orderID).
		Scan(&d.DeliveryID, &d.OrderID, &d.DriverID, &d.DeliveryDate, &d.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DeliveryRepo) Insert(ctx context.Context, d dispatch.Delivery) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO deliveries (delivery_id, order_id, driver_id, delivery_date, status)
VALUES ($1, $2, $3, $4, $5)`,
		d.DeliveryID, d.OrderID, d.DriverID, d.DeliveryDate, d.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return dispatch.ErrDuplicate
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (r *DeliveryRepo) UpdateStatus(ctx context.Context, deliveryID, status string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE deliveries SET status = $2 WHERE delivery_id = $1`,
		deliveryID, status)
	if err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}
	return nil
}
