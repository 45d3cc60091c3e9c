package purchaseorder

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrPOMissing           = errors.New("purchase order not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrStaleState          = errors.New("purchase order changed by another actor")
	ErrNothingToRepurchase = errors.New("all items fully received")
	ErrCascadeDeleteFailed = errors.New("cascade delete failed")
)

// Status literals are shared with existing data; exact casing matters.
// Delivered is a transitional reporting label between Approved and
// Completed; Stocked and Cancelled are terminal.
const (
	StatusPending   = "Pending"
	StatusApproved  = "Approved"
	StatusDelivered = "Delivered"
	StatusCompleted = "Completed"
	StatusStocked   = "Stocked"
	StatusCancelled = "Cancelled"
)

var allowedNext = map[string][]string{
	StatusPending:   {StatusApproved, StatusCancelled},
	StatusApproved:  {StatusDelivered, StatusCompleted, StatusCancelled},
	StatusDelivered: {StatusCompleted, StatusCancelled},
	StatusCompleted: {StatusStocked},
	StatusStocked:   {},
	StatusCancelled: {},
}

func canTransition(from, to string) bool {
	for _, s := range allowedNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// cancellable reports whether a PO in the given status may still be
// cancelled. Completed goods are already received; their cost stands.
func cancellable(status string) bool {
	switch status {
	case StatusCompleted, StatusStocked, StatusCancelled:
		return false
	default:
		return true
	}
}

type PurchaseOrder struct {
	POID             string          `json:"po_id"`
	SupplierID       string          `json:"supplier_id"`
	OrderedBy        string          `json:"ordered_by"`
	Status           string          `json:"status"`
	Items            []Item          `json:"items"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	DateOrdered      time.Time       `json:"date_ordered"`
	ExpectedDelivery *time.Time      `json:"expected_delivery,omitempty"`
	DateDelivered    *time.Time      `json:"date_delivered,omitempty"`
	Remarks          *string         `json:"remarks,omitempty"`
}

type Item struct {
	ItemID     string          `json:"item_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type CreateInput struct {
	SupplierID       string      `json:"supplier_id"`
	OrderedBy        string      `json:"ordered_by"`
	ExpectedDelivery *time.Time  `json:"expected_delivery,omitempty"`
	Remarks          *string     `json:"remarks,omitempty"`
	Items            []ItemInput `json:"items"`
}

type ItemInput struct {
	ItemID    string          `json:"item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
