package stripe

import (
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Client wraps the Stripe API client for webhook verification and invoicing
type Client struct {
	cfg          *config.StripeConfig
	logger       *logger.Logger
	stripeClient *stripe.Client
}

// NewClient creates a new Stripe client
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	return &Client{
		cfg:          &cfg.Stripe,
		logger:       logger,
		stripeClient: stripe.NewClient(cfg.Stripe.SecretKey, nil),
	}
}

// VerifyEvent checks the Stripe-Signature header against the raw payload and
// returns the decoded event envelope. This is the only synchronous gate
// before the webhook is acknowledged; a failure here maps to HTTP 400 and no
// further processing.
func (c *Client) VerifyEvent(payload []byte, signature string) (*stripe.Event, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret, options)
	if err != nil {
		c.logger.Errorw("stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrInvalidSignature)
	}
	return &event, nil
}
