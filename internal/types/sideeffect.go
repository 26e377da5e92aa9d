package types

// SideEffectKind identifies a deferred best-effort action emitted by an
// event handler and executed after the state transition commits.
type SideEffectKind string

const (
	SideEffectCRMContactSync SideEffectKind = "crm.contact_sync"
	SideEffectCRMDealCreate  SideEffectKind = "crm.deal_create"
	SideEffectEmailSend      SideEffectKind = "email.send"
)

// EmailTemplate selects which transactional email to render.
type EmailTemplate string

const (
	EmailTemplatePaymentFailed         EmailTemplate = "payment_failed"
	EmailTemplateEarlyTerminationFee   EmailTemplate = "early_termination_fee"
	EmailTemplateSubscriptionCancelled EmailTemplate = "subscription_cancelled"
)

// SideEffectIntent is the wire payload published to the side-effect topic.
// Failures while executing an intent are logged and dropped; they never
// touch the idempotency ledger.
type SideEffectIntent struct {
	ID      string         `json:"id"`
	Kind    SideEffectKind `json:"kind"`
	EventID string         `json:"event_id"`

	// CRM fields
	Email      string            `json:"email,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	DealName   string            `json:"deal_name,omitempty"`

	// Email fields
	Template     EmailTemplate     `json:"template,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
}

// NewSideEffectIntent stamps a fresh intent id for the given kind.
func NewSideEffectIntent(kind SideEffectKind, eventID string) SideEffectIntent {
	return SideEffectIntent{
		ID:      GenerateUUIDWithPrefix(UUID_PREFIX_SIDE_EFFECT),
		Kind:    kind,
		EventID: eventID,
	}
}
