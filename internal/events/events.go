package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published on the domain feed. Routing keys on the topic
// exchange match these values.
const (
	TypeOrderCreated      = "order.created"
	TypeOrderTransitioned = "order.transitioned"
	TypeOrderDeleted      = "order.deleted"
	TypePOCreated         = "po.created"
	TypePOTransitioned    = "po.transitioned"
	TypePODeleted         = "po.deleted"
	TypeExpenseCreated    = "expense.created"
	TypeExpenseRetracted  = "expense.retracted"
	TypeDeliveryScheduled = "delivery.scheduled"
	TypeStockInRecorded   = "stockin.recorded"
)

// Event is the envelope carried on the feed. Consumers must treat it as a
// hint and re-fetch the referenced entity: delivery is at-least-once and
// may be duplicated or reordered.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	EntityID   string         `json:"entity_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Actor      string         `json:"actor,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

func New(eventType, entityID, actor string, fields map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Actor:      actor,
		Fields:     fields,
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher discards events. Used in tests and when no broker is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, evt Event) error { return nil }
