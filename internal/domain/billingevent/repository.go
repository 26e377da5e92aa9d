package billingevent

import (
	"context"
)

// BeginResult is the outcome of a TryBegin call against the ledger.
type BeginResult string

const (
	// BeginAccepted means the ledger row was inserted and the caller owns
	// processing for this event id.
	BeginAccepted BeginResult = "accepted"

	// BeginAlreadyProcessed means the event id was seen before (any status
	// other than a reclaimed failure); the caller must skip all work.
	BeginAlreadyProcessed BeginResult = "already_processed"
)

// Filter narrows ledger listings for the admin audit surface.
type Filter struct {
	EventType        string
	ProcessingStatus string
	Limit            int
	Offset           int
}

// Repository is the idempotency ledger. TryBegin is the single
// synchronization point of the pipeline and must be atomic against the
// store; there are no in-process locks.
type Repository interface {
	// TryBegin atomically records the event as processing. A previously
	// failed row is reclaimed (flipped back to processing) so a redelivery
	// can retry it after a fix ships; any other existing row returns
	// BeginAlreadyProcessed.
	TryBegin(ctx context.Context, event *BillingEvent) (BeginResult, error)

	// MarkCompleted and MarkFailed are terminal transitions and are safe to
	// call more than once.
	MarkCompleted(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID string, processingError string) error

	Get(ctx context.Context, eventID string) (*BillingEvent, error)
	List(ctx context.Context, filter *Filter) ([]*BillingEvent, error)
	Count(ctx context.Context, filter *Filter) (int, error)
}
