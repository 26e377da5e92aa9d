package overage

import (
	"context"
	"time"
)

// Repository defines overage charge data access.
type Repository interface {
	Create(ctx context.Context, charge *OverageCharge) error
	Get(ctx context.Context, id string) (*OverageCharge, error)

	// ListUnbilled returns charges with billed=false and overage_units>0 for
	// the subscription, oldest first.
	ListUnbilled(ctx context.Context, subscriptionID string) ([]*OverageCharge, error)

	ListBySubscription(ctx context.Context, subscriptionID string) ([]*OverageCharge, error)

	// MarkBilled flips the row to billed with the processor line item
	// reference. It is a no-op on a row already billed.
	MarkBilled(ctx context.Context, id string, invoiceItemID string, billedAt time.Time) error
}
