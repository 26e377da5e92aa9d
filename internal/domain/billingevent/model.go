package billingevent

import (
	"encoding/json"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

// BillingEvent is one row of the idempotency ledger: an immutable record of a
// single inbound processor notification. Rows are never deleted; they double
// as the audit trail.
type BillingEvent struct {
	// EventID is assigned by the payment processor and is the dedup key.
	EventID string `db:"event_id" json:"event_id"`

	// EventType is the processor's type tag, e.g. customer.subscription.created.
	EventType types.BillingEventType `db:"event_type" json:"event_type"`

	// Payload is the raw event body as delivered, kept for audit and replay.
	Payload json.RawMessage `db:"payload" json:"payload"`

	ReceivedAt time.Time `db:"received_at" json:"received_at"`

	ProcessingStatus types.ProcessingStatus `db:"processing_status" json:"processing_status"`

	// ProcessingError holds the handler error when ProcessingStatus is failed.
	ProcessingError *string `db:"processing_error" json:"processing_error,omitempty"`

	types.BaseModel
}

// New builds a ledger entry in the processing state for an inbound event.
func New(eventID string, eventType types.BillingEventType, payload []byte) *BillingEvent {
	now := time.Now().UTC()
	return &BillingEvent{
		EventID:          eventID,
		EventType:        eventType,
		Payload:          payload,
		ReceivedAt:       now,
		ProcessingStatus: types.ProcessingStatusProcessing,
		BaseModel: types.BaseModel{
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: types.DefaultUserID,
			UpdatedBy: types.DefaultUserID,
		},
	}
}
