package salesorder

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput              = errors.New("invalid input")
	ErrOrderMissing              = errors.New("order not found")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrStaleState                = errors.New("order changed by another actor")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
)

// Status literals are shared with existing data; exact casing matters.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Order Confirmed"
	StatusPacked    = "Packed"
	StatusInTransit = "In Transit"
	StatusDelivered = "Delivered"
	StatusComplete  = "Complete"
	StatusCancelled = "Cancelled"
)

// forwardChain maps each status to its only allowed successor. Cancelled is
// a side branch handled separately and only reachable from Pending.
var forwardChain = map[string]string{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusPacked,
	StatusPacked:    StatusInTransit,
	StatusInTransit: StatusDelivered,
	StatusDelivered: StatusComplete,
}

// Phase names the timestamp/actor column pair stamped by a transition.
type Phase string

const (
	PhaseNone      Phase = ""
	PhaseConfirmed Phase = "confirmed"
	PhasePacked    Phase = "packed"
	PhaseInTransit Phase = "in_transit"
	PhaseDelivered Phase = "delivered"
	PhaseCompleted Phase = "completed"
)

// phaseFor maps a target status to the phase it stamps. Cancelled stamps
// nothing besides status.
var phaseFor = map[string]Phase{
	StatusConfirmed: PhaseConfirmed,
	StatusPacked:    PhasePacked,
	StatusInTransit: PhaseInTransit,
	StatusDelivered: PhaseDelivered,
	StatusComplete:  PhaseCompleted,
}

type Order struct {
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	Status      string          `json:"status"`
	Items       []Item          `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DateOrdered time.Time       `json:"date_ordered"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
	ConfirmedBy *string         `json:"confirmed_by,omitempty"`
	PackedAt    *time.Time      `json:"packed_at,omitempty"`
	PackedBy    *string         `json:"packed_by,omitempty"`
	InTransitAt *time.Time      `json:"in_transit_at,omitempty"`
	InTransitBy *string         `json:"in_transit_by,omitempty"`
	DeliveredAt *time.Time      `json:"delivered_at,omitempty"`
	DeliveredBy *string         `json:"delivered_by,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	DeliveryID  *string         `json:"delivery_id,omitempty"`
}

// Item is a line of the order with the unit price snapshotted at checkout.
type Item struct {
	ItemID    string          `json:"item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateInput struct {
	CustomerID string `json:"customer_id"`
	Items      []Item `json:"items"`
}

// TransitionPatch is what a successful transition writes. Status is always
// set; Phase/At/By stamp the matching column pair when the target has one.
type TransitionPatch struct {
	Status     string
	Phase      Phase
	At         time.Time
	By         string
	DeliveryID *string
}
