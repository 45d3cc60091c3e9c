package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	souc "github.com/bayuh-ra/bbglo-backend/internal/usecase/salesorder"
)

const orderColumns = `
order_id, customer_id, status, items, total_amount::text, date_ordered,
confirmed_at, confirmed_by, packed_at, packed_by,
in_transit_at, in_transit_by, delivered_at, delivered_by,
completed_at, delivery_id`

// SalesOrderRepo implements salesorder.Store on PostgreSQL. Items live in
// a jsonb column; amounts are numeric, moved as text.
type SalesOrderRepo struct {
	db *pgxpool.Pool
}

func NewSalesOrderRepo(db *pgxpool.Pool) *SalesOrderRepo {
	return &SalesOrderRepo{db: db}
}

func (r *SalesOrderRepo) GetByID(ctx context.Context, orderID string) (*souc.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	o, err := scanOrder(r.db.QueryRow(ctx, q, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, souc.ErrOrderMissing
		}
		return nil, err
	}
	return o, nil
}

func (r *SalesOrderRepo) Create(ctx context.Context, in souc.CreateInput, total decimal.Decimal) (*souc.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Sequential from the last existing ID so new orders interleave
	// correctly with pre-existing data.
	var maxSeq int
	err = tx.QueryRow(ctx, `
SELECT COALESCE(MAX(CAST(SUBSTRING(order_id FROM 5) AS INT)), 0)
FROM orders
WHERE order_id LIKE 'OID-%'`).Scan(&maxSeq)
	if err != nil {
		return nil, fmt.Errorf("next order id: %w", err)
	}
	orderID := fmt.Sprintf("OID-%04d", maxSeq+1)

	itemsJSON, err := json.Marshal(in.Items)
	if err != nil {
		return nil, err
	}

	q := `
INSERT INTO orders (order_id, customer_id, status, items, total_amount)
VALUES ($1, $2, $3, $4, $5::numeric)
RETURNING ` + orderColumns
	o, err := scanOrder(tx.QueryRow(ctx, q, orderID, in.CustomerID, souc.StatusPending, itemsJSON, total.String()))
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// ApplyTransition is the optimistic write: the WHERE clause pins the
// status read earlier, so a concurrent transition makes this match zero
// rows instead of double-applying.
func (r *SalesOrderRepo) ApplyTransition(ctx context.Context, orderID, fromStatus string, patch souc.TransitionPatch) (*souc.Order, error) {
	var q string
	args := []any{orderID, fromStatus, patch.Status}

	switch patch.Phase {
	case souc.PhaseConfirmed:
		q = `UPDATE orders SET status = $3, confirmed_at = $4, confirmed_by = $5`
		args = append(args, patch.At, patch.By)
	case souc.PhasePacked:
		q = `UPDATE orders SET status = $3, packed_at = $4, packed_by = $5`
		args = append(args, patch.At, patch.By)
	case souc.PhaseInTransit:
		q = `UPDATE orders SET status = $3, in_transit_at = $4, in_transit_by = $5, delivery_id = $6`
		args = append(args, patch.At, patch.By, patch.DeliveryID)
	case souc.PhaseDelivered:
		q = `UPDATE orders SET status = $3, delivered_at = $4, delivered_by = $5`
		args = append(args, patch.At, patch.By)
	case souc.PhaseCompleted:
		q = `UPDATE orders SET status = $3, completed_at = $4`
		args = append(args, patch.At)
	default: // Cancelled stamps nothing besides status
		q = `UPDATE orders SET status = $3`
	}
	q += ` WHERE order_id = $1 AND status = $2 RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Decide between a vanished order and a concurrent writer.
			var one int
			if err2 := r.db.QueryRow(ctx, `SELECT 1 FROM orders WHERE order_id = $1`, orderID).Scan(&one); err2 != nil {
				if errors.Is(err2, pgx.ErrNoRows) {
					return nil, souc.ErrOrderMissing
				}
				return nil, err2
			}
			return nil, souc.ErrStaleState
		}
		return nil, err
	}
	return o, nil
}

func (r *SalesOrderRepo) DeleteCascade(ctx context.Context, orderIDs []string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM deliveries WHERE order_id = ANY($1)`, orderIDs); err != nil {
		return 0, fmt.Errorf("delete deliveries: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE order_id = ANY($1)`, orderIDs)
	if err != nil {
		return 0, fmt.Errorf("delete orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func scanOrder(row pgx.Row) (*souc.Order, error) {
	var (
		o         souc.Order
		itemsJSON []byte
		totalStr  string
	)
	err := row.Scan(
		&o.OrderID, &o.CustomerID, &o.Status, &itemsJSON, &totalStr, &o.DateOrdered,
		&o.ConfirmedAt, &o.ConfirmedBy, &o.PackedAt, &o.PackedBy,
		&o.InTransitAt, &o.InTransitBy, &o.DeliveredAt, &o.DeliveredBy,
		&o.CompletedAt, &o.DeliveryID,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if o.TotalAmount, err = parseDecimal(totalStr); err != nil {
		return nil, fmt.Errorf("decode total_amount: %w", err)
	}
	return &o, nil
}
