package stock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_Boundaries(t *testing.T) {
	records := func(qty int) []InRecord {
		if qty == 0 {
			return nil
		}
		return []InRecord{{PurchaseOrderID: "PO-1", ItemID: "IT-001", Quantity: qty}}
	}

	tests := []struct {
		name     string
		received int
		want     Classification
	}{
		{"nothing received", 0, Unstocked},
		{"one short", 9, PartiallyStocked},
		{"exactly ordered", 10, Stocked},
		{"over-delivered", 12, Stocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("PO-1", "IT-001", 10, records(tt.received))
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_SumsPartialReceipts(t *testing.T) {
	records := []InRecord{
		{PurchaseOrderID: "PO-1", ItemID: "IT-001", Quantity: 4},
		{PurchaseOrderID: "PO-1", ItemID: "IT-001", Quantity: 3},
		{PurchaseOrderID: "PO-1", ItemID: "IT-002", Quantity: 50},
		{PurchaseOrderID: "PO-2", ItemID: "IT-001", Quantity: 50},
	}

	require.Equal(t, PartiallyStocked, Classify("PO-1", "IT-001", 10, records))
	require.Equal(t, 7, Received("PO-1", "IT-001", records))
}

func TestClassify_Idempotent(t *testing.T) {
	records := []InRecord{
		{PurchaseOrderID: "PO-1", ItemID: "IT-001", Quantity: 5},
	}

	first := Classify("PO-1", "IT-001", 10, records)
	second := Classify("PO-1", "IT-001", 10, records)
	require.Equal(t, first, second)
}
