package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	pouc "github.com/bayuh-ra/bbglo-backend/internal/usecase/purchaseorder"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/stock"
)

const poColumns = `
po_id, supplier_id, ordered_by, status, total_cost::text,
date_ordered, expected_delivery, date_delivered, remarks`

// PurchaseOrderRepo implements purchaseorder.Store. Items and stock-in
// records are normalized rows; inventory applies inside the same
// transaction as the receipt.
type PurchaseOrderRepo struct {
	db *pgxpool.Pool
}

func NewPurchaseOrderRepo(db *pgxpool.Pool) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{db: db}
}

func (r *PurchaseOrderRepo) GetByID(ctx context.Context, poID string) (*pouc.PurchaseOrder, error) {
	q := `SELECT ` + poColumns + ` FROM purchase_orders WHERE po_id = $1`
	po, err := scanPO(r.db.QueryRow(ctx, q, poID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pouc.ErrPOMissing
		}
		return nil, err
	}

	if po.Items, err = r.loadItems(ctx, poID); err != nil {
		return nil, err
	}
	return po, nil
}

func (r *PurchaseOrderRepo) Create(ctx context.Context, in pouc.CreateInput, items []pouc.Item, totalCost decimal.Decimal) (*pouc.PurchaseOrder, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var maxSeq int
	err = tx.QueryRow(ctx, `
SELECT COALESCE(MAX(CAST(SUBSTRING(po_id FROM 4) AS INT)), 0)
FROM purchase_orders
WHERE po_id LIKE 'PO-%'`).Scan(&maxSeq)
	if err != nil {
		return nil, fmt.Errorf("next po id: %w", err)
	}
	poID := fmt.Sprintf("PO-%05d", maxSeq+1)

	q := `
INSERT INTO purchase_orders (po_id, supplier_id, ordered_by, status, total_cost, expected_delivery, remarks)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
RETURNING ` + poColumns
	po, err := scanPO(tx.QueryRow(ctx, q,
		poID, in.SupplierID, in.OrderedBy, pouc.StatusPending,
		totalCost.String(), in.ExpectedDelivery, in.Remarks))
	if err != nil {
		return nil, fmt.Errorf("insert purchase order: %w", err)
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
INSERT INTO purchase_order_items (po_id, item_id, quantity, unit_price, total_price)
VALUES ($1, $2, $3, $4::numeric, $5::numeric)`,
			poID, it.ItemID, it.Quantity, it.UnitPrice.String(), it.TotalPrice.String())
		if err != nil {
			return nil, fmt.Errorf("insert po item %s: %w", it.ItemID, err)
		}
	}
	po.Items = items

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return po, nil
}

func (r *PurchaseOrderRepo) UpdateStatusIf(ctx context.Context, poID, fromStatus, toStatus string, dateDelivered *time.Time) (*pouc.PurchaseOrder, error) {
	q := `
UPDATE purchase_orders
SET status = $3, date_delivered = COALESCE($4, date_delivered)
WHERE po_id = $1 AND status = $2
RETURNING ` + poColumns
	po, err := scanPO(r.db.QueryRow(ctx, q, poID, fromStatus, toStatus, dateDelivered))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var one int
			if err2 := r.db.QueryRow(ctx, `SELECT 1 FROM purchase_orders WHERE po_id = $1`, poID).Scan(&one); err2 != nil {
				if errors.Is(err2, pgx.ErrNoRows) {
					return nil, pouc.ErrPOMissing
				}
				return nil, err2
			}
			return nil, pouc.ErrStaleState
		}
		return nil, err
	}

	if po.Items, err = r.loadItems(ctx, poID); err != nil {
		return nil, err
	}
	return po, nil
}

func (r *PurchaseOrderRepo) ListStockIn(ctx context.Context, poID string) ([]stock.InRecord, error) {
	rows, err := r.db.Query(ctx, `
SELECT po_id, item_id, quantity
FROM stock_in_records
WHERE po_id = $1
ORDER BY stocked_at`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []stock.InRecord
	for rows.Next() {
		var rec stock.InRecord
		if err := rows.Scan(&rec.PurchaseOrderID, &rec.ItemID, &rec.Quantity); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PurchaseOrderRepo) AddStockIn(ctx context.Context, rec stock.InRecord, stockedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO stock_in_records (po_id, item_id, quantity, stocked_by)
VALUES ($1, $2, $3, $4)`,
		rec.PurchaseOrderID, rec.ItemID, rec.Quantity, stockedBy)
	if err != nil {
		return fmt.Errorf("insert stock-in record: %w", err)
	}

	_, err = tx.Exec(ctx, `
INSERT INTO inventory_items (item_id, quantity)
VALUES ($1, $2)
ON CONFLICT (item_id) DO UPDATE SET quantity = inventory_items.quantity + EXCLUDED.quantity`,
		rec.ItemID, rec.Quantity)
	if err != nil {
		return fmt.Errorf("apply inventory increase: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PurchaseOrderRepo) DeleteCascade(ctx context.Context, poID string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Reverse the inventory this PO brought in before dropping the records.
	_, err = tx.Exec(ctx, `
UPDATE inventory_items i
SET quantity = i.quantity - s.received
FROM (
	SELECT item_id, SUM(quantity) AS received
	FROM stock_in_records
	WHERE po_id = $1
	GROUP BY item_id
) s
WHERE i.item_id = s.item_id`, poID)
	if err != nil {
		return false, fmt.Errorf("reverse inventory: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM stock_in_records WHERE po_id = $1`, poID); err != nil {
		return false, fmt.Errorf("delete stock-in records: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM purchase_order_items WHERE po_id = $1`, poID); err != nil {
		return false, fmt.Errorf("delete po items: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM purchase_orders WHERE po_id = $1`, poID)
	if err != nil {
		return false, fmt.Errorf("delete purchase order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *PurchaseOrderRepo) loadItems(ctx context.Context, poID string) ([]pouc.Item, error) {
	rows, err := r.db.Query(ctx, `
SELECT item_id, quantity, unit_price::text, total_price::text
FROM purchase_order_items
WHERE po_id = $1
ORDER BY item_id`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []pouc.Item
	for rows.Next() {
		var (
			it                pouc.Item
			unitStr, totalStr string
		)
		if err := rows.Scan(&it.ItemID, &it.Quantity, &unitStr, &totalStr); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = parseDecimal(unitStr); err != nil {
			return nil, fmt.Errorf("decode unit_price: %w", err)
		}
		if it.TotalPrice, err = parseDecimal(totalStr); err != nil {
			return nil, fmt.Errorf("decode total_price: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanPO(row pgx.Row) (*pouc.PurchaseOrder, error) {
	var (
		po      pouc.PurchaseOrder
		costStr string
	)
	err := row.Scan(
		&po.POID, &po.SupplierID, &po.OrderedBy, &po.Status, &costStr,
		&po.DateOrdered, &po.ExpectedDelivery, &po.DateDelivered, &po.Remarks,
	)
	if err != nil {
		return nil, err
	}
	if po.TotalCost, err = parseDecimal(costStr); err != nil {
		return nil, fmt.Errorf("decode total_cost: %w", err)
	}
	return &po, nil
}
