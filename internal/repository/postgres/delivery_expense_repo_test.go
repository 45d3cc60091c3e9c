package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bayuh-ra/bbglo-backend/internal/repository/postgres/testutil"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/dispatch"
	expuc "github.com/bayuh-ra/bbglo-backend/internal/usecase/expense"
	souc "github.com/bayuh-ra/bbglo-backend/internal/usecase/salesorder"
)

func TestDeliveryRepo_UniquePerOrder(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()

	testutil.TruncateAll(t, db)

	ctx := context.Background()
	repo := NewDeliveryRepo(db)

	testutil.MustInsertOrder(t, db, "OID-0001", "CUST-0001", souc.StatusPacked)

	driver := "EMP-0002"
	d := dispatch.Delivery{
		DeliveryID:   "DEL-20250101-1234",
		OrderID:      "OID-0001",
		DriverID:     &driver,
		DeliveryDate: time.Now().UTC(),
		Status:       dispatch.StatusInTransit,
	}
	if err := repo.Insert(ctx, d); err != nil {
		t.Fatalf("insert delivery: %v", err)
	}

	// A second delivery for the same order must trip the constraint even
	// with a different delivery_id.
	d.DeliveryID = "DEL-20250101-5678"
	err := repo.Insert(ctx, d)
	if !errors.Is(err, dispatch.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate got=%v", err)
	}

	found, err := repo.FindByOrderID(ctx, "OID-0001")
	if err != nil {
		t.Fatalf("find delivery: %v", err)
	}
	if found == nil || found.DeliveryID != "DEL-20250101-1234" {
		t.Fatalf("expected winner's row, got %+v", found)
	}

	missing, err := repo.FindByOrderID(ctx, "OID-9999")
	if err != nil {
		t.Fatalf("find missing delivery: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent delivery, got %+v", missing)
	}
}

func TestExpenseRepo_DuplicateLinkedPO(t *testing.T) {
	db := testutil.MustOpenDB(t)
	defer db.Close()

	testutil.TruncateAll(t, db)

	ctx := context.Background()
	repo := NewExpenseRepo(db)

	linked := "PO-00001"
	e := expuc.Expense{
		ExpenseID: "EXP-0001",
		Category:  expuc.CategoryPurchaseOrder,
		Amount:    decimal.NewFromInt(500),
		Date:      time.Now().UTC(),
		PaidTo:    "SUP-0001",
		LinkedID:  &linked,
		CreatedBy: "EMP-0001",
	}
	if err := repo.Insert(ctx, e); err != nil {
		t.Fatalf("insert expense: %v", err)
	}

	e.ExpenseID = "EXP-0002"
	err := repo.Insert(ctx, e)
	if !errors.Is(err, expuc.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate got=%v", err)
	}

	// The partial index only guards Purchase Order expenses; another
	// category may reference the same ID freely.
	e.ExpenseID = "EXP-0003"
	e.Category = "Utilities"
	if err := repo.Insert(ctx, e); err != nil {
		t.Fatalf("insert other-category expense: %v", err)
	}

	found, err := repo.FindByLinkedPO(ctx, linked)
	if err != nil {
		t.Fatalf("find by linked po: %v", err)
	}
	if found == nil || found.ExpenseID != "EXP-0001" {
		t.Fatalf("expected EXP-0001, got %+v", found)
	}

	taken, err := repo.Exists(ctx, "EXP-0001")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !taken {
		t.Fatalf("expected EXP-0001 to exist")
	}

	removed, err := repo.DeleteByLinkedPO(ctx, linked)
	if err != nil {
		t.Fatalf("delete by linked po: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 row removed, got %d", removed)
	}
}
