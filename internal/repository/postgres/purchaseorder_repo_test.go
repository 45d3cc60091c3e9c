package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bayuh-ra/bbglo-backend/internal/repository/postgres/testutil"
	pouc "github.com/bayuh-ra/bbglo-backend/internal/usecase/purchaseorder"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/stock"
)

func seedPO(t *testing.T, repo *PurchaseOrderRepo) *pouc.PurchaseOrder {
	t.Helper()

	in := pouc.CreateInput{
		SupplierID: "SUP-0001",
		OrderedBy:  "EMP-0001",
	}
	items := []pouc.Item{
		{
			ItemID:     "ITM-0001",
			Quantity:   10,
			UnitPrice:  decimal.NewFromInt(25),
			TotalPrice: decimal.NewFromInt(250),
		},
	}

	po, err := repo.Create(context.Background(), in, items, decimal.NewFromInt(250))
	if err != nil {
		t.Fatalf("create purchase order: %v", err)
	}
	return po
}

func TestPurchaseOrderRepo_CreateAndGet(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()

	testutil.TruncateAll(t, db)

	ctx := context.Background()
	repo := NewPurchaseOrderRepo(db)

	po := seedPO(t, repo)
	if po.POID != "PO-00001" {
		t.Fatalf("expected PO-00001 got=%s", po.POID)
	}
	if po.Status != pouc.StatusPending {
		t.Fatalf("expected Pending got=%s", po.Status)
	}

	got, err := repo.GetByID(ctx, po.POID)
	if err != nil {
		t.Fatalf("get purchase order: %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
	if !got.Items[0].TotalPrice.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected line total 250, got %s", got.Items[0].TotalPrice)
	}
	if !got.TotalCost.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected total cost 250, got %s", got.TotalCost)
	}

	_, err = repo.GetByID(ctx, "PO-99999")
	if !errors.Is(err, pouc.ErrPOMissing) {
		t.Fatalf("expected ErrPOMissing got=%v", err)
	}
}

func TestPurchaseOrderRepo_UpdateStatusIf(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()

	testutil.TruncateAll(t, db)

	ctx := context.Background()
	repo := NewPurchaseOrderRepo(db)

	po := seedPO(t, repo)

	updated, err := repo.UpdateStatusIf(ctx, po.POID, pouc.StatusPending, pouc.StatusApproved, nil)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != pouc.StatusApproved {
		t.Fatalf("expected Approved got=%s", updated.Status)
	}

	_, err = repo.UpdateStatusIf(ctx, po.POID, pouc.StatusPending, pouc.StatusApproved, nil)
	if !errors.Is(err, pouc.ErrStaleState) {
		t.Fatalf("expected ErrStaleState got=%v", err)
	}

	delivered := time.Now().UTC()
	updated, err = repo.UpdateStatusIf(ctx, po.POID, pouc.StatusApproved, pouc.StatusCompleted, &delivered)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.DateDelivered == nil {
		t.Fatalf("expected date_delivered stamped")
	}
}

func TestPurchaseOrderRepo_StockInAppliesInventory(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()

	testutil.TruncateAll(t, db)

	ctx := context.Background()
	repo := NewPurchaseOrderRepo(db)

	po := seedPO(t, repo)

	for _, qty := range []int{4, 6} {
		rec := stock.InRecord{PurchaseOrderID: po.POID, ItemID: "ITM-0001", Quantity: qty}
		if err := repo.AddStockIn(ctx, rec, "EMP-0003"); err != nil {
			t.Fatalf("add stock-in qty=%d: %v", qty, err)
		}
	}

	records, err := repo.ListStockIn(ctx, po.POID)
	if err != nil {
		t.Fatalf("list stock-in: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if got := stock.Received(po.POID, "ITM-0001", records); got != 10 {
		t.Fatalf("expected 10 received, got %d", got)
	}

	var onHand int
	if err := db.QueryRow(ctx, `SELECT quantity FROM inventory_items WHERE item_id = 'ITM-0001'`).Scan(&onHand); err != nil {
		t.Fatalf("read inventory: %v", err)
	}
	if onHand != 10 {
		t.Fatalf("expected inventory 10, got %d", onHand)
	}
}

func TestPurchaseOrderRepo_DeleteCascade(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()

	testutil.TruncateAll(t, db)

	ctx := context.Background()
	repo := NewPurchaseOrderRepo(db)

	po := seedPO(t, repo)

	rec := stock.InRecord{PurchaseOrderID: po.POID, ItemID: "ITM-0001", Quantity: 10}
	if err := repo.AddStockIn(ctx, rec, "EMP-0003"); err != nil {
		t.Fatalf("add stock-in: %v", err)
	}

	removed, err := repo.DeleteCascade(ctx, po.POID)
	if err != nil {
		t.Fatalf("delete cascade: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal")
	}

	// Inventory brought in by the PO is reversed.
	var onHand int
	if err := db.QueryRow(ctx, `SELECT quantity FROM inventory_items WHERE item_id = 'ITM-0001'`).Scan(&onHand); err != nil {
		t.Fatalf("read inventory: %v", err)
	}
	if onHand != 0 {
		t.Fatalf("expected inventory reversed to 0, got %d", onHand)
	}

	var count int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM stock_in_records`).Scan(&count); err != nil {
		t.Fatalf("count stock-in records: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected stock-in records removed, got %d", count)
	}

	removed, err = repo.DeleteCascade(ctx, po.POID)
	if err != nil {
		t.Fatalf("second delete cascade: %v", err)
	}
	if removed {
		t.Fatalf("expected no-op on second delete")
	}
}
