package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names the transaction transition an event reports.
type EventType string

const (
	EventPending  EventType = "transaction.pending"
	EventApproved EventType = "transaction.approved"
	EventRevoked  EventType = "transaction.revoked"
	EventCanceled EventType = "transaction.canceled"
)

type Event struct {
	Type          EventType `json:"type"`
	TransactionID uuid.UUID `json:"transaction_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// Sink receives events on a best-effort, at-most-once basis.
// Publish must not block the caller.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

type scopeKey struct{}

// WithCustomerScope limits a subscription opened with ctx to one customer's events.
func WithCustomerScope(ctx context.Context, customerID uuid.UUID) context.Context {
	return context.WithValue(ctx, scopeKey{}, customerID)
}

func customerScope(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(scopeKey{}).(uuid.UUID)
	return id, ok
}
