package stock

// Classification is the derived fulfillment status of one ordered item.
// The literal strings are shared with existing data and must not change.
type Classification string

const (
	Unstocked        Classification = "Unstocked"
	PartiallyStocked Classification = "Partially Stocked"
	Stocked          Classification = "Stocked"
)

// InRecord is one receipt of goods against a purchase order. Records are
// append-only; several may exist for the same (PO, item) pair.
type InRecord struct {
	PurchaseOrderID string
	ItemID          string
	Quantity        int
}

// Classify sums the receipts matching (poID, itemID) and compares the total
// against the ordered quantity. Pure: identical inputs always yield the
// identical classification.
func Classify(poID, itemID string, orderedQty int, records []InRecord) Classification {
	received := 0
	for _, r := range records {
		if r.PurchaseOrderID == poID && r.ItemID == itemID {
			received += r.Quantity
		}
	}

	switch {
	case received == 0:
		return Unstocked
	case received < orderedQty:
		return PartiallyStocked
	default:
		return Stocked
	}
}

// Received sums the receipts matching (poID, itemID).
func Received(poID, itemID string, records []InRecord) int {
	total := 0
	for _, r := range records {
		if r.PurchaseOrderID == poID && r.ItemID == itemID {
			total += r.Quantity
		}
	}
	return total
}
